package service

import (
	"context"
	"net/url"
	"time"

	"crelo/internal/repository"
)

// AdminChecker returns an isAdmin predicate backed by the user store.
func AdminChecker(store repository.Store) func(ctx context.Context, userID uint) (bool, error) {
	return func(ctx context.Context, userID uint) (bool, error) {
		user, err := store.Users().GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return user.IsAdmin, nil
	}
}

// allowed reports whether actor may act on a resource owned by owner:
// owners always may, everybody else only when isAdmin says so.
func allowed(ctx context.Context, isAdmin func(context.Context, uint) (bool, error), actor, owner uint) (bool, error) {
	if actor != 0 && actor == owner {
		return true, nil
	}
	if isAdmin == nil || actor == 0 {
		return false, nil
	}
	return isAdmin(ctx, actor)
}

func validURL(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func systemNow() time.Time {
	return time.Now().UTC()
}
