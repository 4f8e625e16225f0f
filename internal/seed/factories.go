// Package seed provides helpers to create reference and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"crelo/internal/models"
	"crelo/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities for seeding. Users are written directly;
// projects, pledges and updates are returned as service inputs so the
// normal rules (activities, milestones, counters) apply when they are saved.
type Factory struct {
	db           *gorm.DB
	faker        *gofakeit.Faker
	passwordHash string
	nextUser     int
}

// NewFactory creates a Factory. A zero seed picks a time-based one.
func NewFactory(db *gorm.DB, seed int64, passwordHash string) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, faker: gofakeit.New(seed), passwordHash: passwordHash}
}

// BuildUser returns an unsaved user living in the given location.
func (f *Factory) BuildUser(locationID uint, overrides ...func(*models.User)) *models.User {
	f.nextUser++
	first := strings.ToLower(f.faker.FirstName())
	last := strings.ToLower(f.faker.LastName())
	username := fmt.Sprintf("%s_%s%d", onlyAlnum(first), onlyAlnum(last), f.nextUser)
	if len(username) > 30 {
		username = fmt.Sprintf("user%d", f.nextUser)
	}

	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   f.passwordHash,
		LocationID: locationID,
		Bio:        f.faker.Sentence(10),
		Image:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(locationID uint, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(locationID, overrides...)
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// ProjectInput describes a project for owner due between one and sixty
// days from now.
func (f *Factory) ProjectInput(owner *models.User, rows *CatalogRows, now time.Time) service.CreateProjectInput {
	cat := rows.Categories[f.faker.Number(0, len(rows.Categories)-1)]
	pt := rows.PledgeTypes[f.faker.Number(0, len(rows.PledgeTypes)-1)]
	due := now.Add(time.Duration(f.faker.Number(24, 60*24)) * time.Hour)

	return service.CreateProjectInput{
		OwnerID:      owner.ID,
		Title:        strings.TrimSuffix(f.faker.Sentence(5), "."),
		Venue:        f.faker.Street(),
		Description:  f.faker.Paragraph(2, 4, 12, "\n\n"),
		GoalAmount:   int64(f.faker.Number(5, 200) * 50),
		Image:        fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()),
		DueDate:      due,
		CategoryID:   cat.ID,
		PledgeTypeID: pt.ID,
	}
}

// PledgeInput sizes a pledge as a slice of the project goal.
func (f *Factory) PledgeInput(supporterID uint, project *models.Project) service.CreatePledgeInput {
	maxAmount := project.GoalAmount / 4
	if maxAmount < 1 {
		maxAmount = 1
	}
	in := service.CreatePledgeInput{
		SupporterID: supporterID,
		ProjectID:   project.ID,
		Amount:      int64(f.faker.Number(1, int(maxAmount))),
		Anonymous:   f.faker.Number(1, 5) == 1,
	}
	if f.faker.Bool() {
		in.Comment = f.faker.Sentence(6)
	}
	return in
}

// ProgressUpdateInput posts an owner update, sometimes with a photo.
func (f *Factory) ProgressUpdateInput(ownerID, projectID uint) service.CreateProgressUpdateInput {
	in := service.CreateProgressUpdateInput{
		UserID:    ownerID,
		ProjectID: projectID,
		Content:   f.faker.Paragraph(1, 3, 10, " "),
	}
	if f.faker.Bool() {
		in.Image = fmt.Sprintf("https://picsum.photos/seed/update-%s/800/600", f.faker.UUID())
	}
	return in
}

func onlyAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}
