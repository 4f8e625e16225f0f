package models

import "time"

// User represents a registered account.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	LocationID uint      `gorm:"not null;index" json:"location_id"`
	Bio        string    `gorm:"type:text" json:"bio"`
	Image      string    `gorm:"size:500" json:"image"`
	IsAdmin    bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Location            *Location         `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	FavouriteCategories []ProjectCategory `gorm:"many2many:user_favourite_categories;" json:"favourite_categories,omitempty"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// FavouriteCategoryIDs returns the IDs of the user's favourite categories.
func (u *User) FavouriteCategoryIDs() []uint {
	ids := make([]uint, 0, len(u.FavouriteCategories))
	for _, c := range u.FavouriteCategories {
		ids = append(ids, c.ID)
	}
	return ids
}
