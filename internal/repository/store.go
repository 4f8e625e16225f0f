package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories so a service can run several of them in one
// transaction.
type Store interface {
	Locations() LocationRepository
	Categories() CategoryRepository
	PledgeTypes() PledgeTypeRepository
	Users() UserRepository
	Projects() ProjectRepository
	Pledges() PledgeRepository
	ProgressUpdates() ProgressUpdateRepository
	Activities() ActivityRepository

	// Transaction runs fn against a Store bound to a single database
	// transaction. Returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db    *gorm.DB
	reads *gorm.DB
}

// NewStore returns a Store backed by db. Reads go to the replica when one is configured.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, reads: readDB(db)}
}

func (s *gormStore) Locations() LocationRepository {
	return &locationRepository{catalog: newLocationCatalog(s.db, s.reads)}
}

func (s *gormStore) Categories() CategoryRepository {
	return &categoryRepository{catalog: newCategoryCatalog(s.db, s.reads)}
}

func (s *gormStore) PledgeTypes() PledgeTypeRepository {
	return &pledgeTypeRepository{catalog: newPledgeTypeCatalog(s.db, s.reads)}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db, reads: s.reads}
}

func (s *gormStore) Projects() ProjectRepository {
	return &projectRepository{db: s.db, reads: s.reads}
}

func (s *gormStore) Pledges() PledgeRepository {
	return &pledgeRepository{db: s.db, reads: s.reads}
}

func (s *gormStore) ProgressUpdates() ProgressUpdateRepository {
	return &progressUpdateRepository{db: s.db, reads: s.reads}
}

func (s *gormStore) Activities() ActivityRepository {
	return &activityRepository{db: s.db, reads: s.reads}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reads inside the transaction must see its own writes.
		return fn(&gormStore{db: tx, reads: tx})
	})
}
