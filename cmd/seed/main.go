// Command main runs the database seeder for Crelo.
package main

import (
	"context"
	"flag"
	"log"

	"crelo/internal/config"
	"crelo/internal/database"
	"crelo/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numProjects := flag.Int("projects", 40, "Number of projects to create")
	maxPledges := flag.Int("pledges", 8, "Maximum pledges per project")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	catalogOnly := flag.Bool("catalog-only", false, "Only load locations, categories and pledge types")
	randSeed := flag.Int64("rand-seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() && !*catalogOnly {
		log.Fatal("❌ Refusing to generate demo data in production; use -catalog-only")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *catalogOnly {
		catalog, err := seed.DefaultCatalog()
		if err != nil {
			log.Fatalf("❌ Catalog load failed: %v", err)
		}
		rows, err := seed.ApplyCatalog(db, catalog)
		if err != nil {
			log.Fatalf("❌ Catalog seeding failed: %v", err)
		}
		log.Printf("✨ Catalog ready: %d locations, %d categories, %d pledge types",
			len(rows.Locations), len(rows.Categories), len(rows.PledgeTypes))
		return
	}

	log.Printf("Target: %d users, %d projects, up to %d pledges each, clean=%v\n",
		*numUsers, *numProjects, *maxPledges, *shouldClean)

	if _, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:             *numUsers,
		NumProjects:          *numProjects,
		MaxPledgesPerProject: *maxPledges,
		ShouldClean:          *shouldClean,
		RandSeed:             *randSeed,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
