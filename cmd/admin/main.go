// Package main provides admin management utilities for Crelo.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"crelo/internal/config"
	"crelo/internal/database"
	"crelo/internal/models"
	"crelo/internal/repository"
	"crelo/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin/main.go promote <user_id>     - Promote user to admin")
	fmt.Println("  go run ./cmd/admin/main.go demote <user_id>      - Demote user from admin")
	fmt.Println("  go run ./cmd/admin/main.go list-admins           - List all admins")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := service.NewUserService(repository.NewStore(db))
	ctx := context.Background()

	switch os.Args[1] {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil || id == 0 {
			fmt.Printf("Invalid user ID %q\n", os.Args[2])
			os.Exit(1)
		}
		setAdmin(ctx, users, uint(id), os.Args[1] == "promote")

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users *service.UserService, id uint, admin bool) {
	user, err := users.SetAdmin(ctx, id, admin)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User with ID %d not found\n", id)
			os.Exit(1)
		}
		log.Fatalf("Failed to update user: %v", err)
	}

	verb := "demoted"
	if admin {
		verb = "promoted"
	}
	fmt.Printf("✅ %s (ID: %d) %s; is_admin=%t\n", user.Username, user.ID, verb, user.IsAdmin)
}

func listAdmins(ctx context.Context, users *service.UserService) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Printf("Found %d admin(s):\n", len(admins))
	for _, admin := range admins {
		fmt.Printf("  - %s (ID: %d, Email: %s)\n", admin.Username, admin.ID, admin.Email)
	}
}
