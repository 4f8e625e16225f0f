package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"crelo/internal/cache"
	"crelo/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed catalog.yml
var catalogYAML []byte

// Catalog is the reference data every environment needs before users can
// sign up or create projects.
type Catalog struct {
	Locations   []string `yaml:"locations"`
	Categories  []string `yaml:"categories"`
	PledgeTypes []string `yaml:"pledge_types"`
}

// DefaultCatalog parses the embedded catalog.yml.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes a catalog document. Blank and duplicate entries are
// dropped.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.Locations = cleanNames(c.Locations)
	c.Categories = cleanNames(c.Categories)
	c.PledgeTypes = cleanNames(c.PledgeTypes)
	if len(c.Locations) == 0 {
		return nil, errors.New("catalog must list at least one location")
	}
	return &c, nil
}

func cleanNames(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// CatalogRows holds the persisted reference rows, in catalog order.
type CatalogRows struct {
	Locations   []models.Location
	Categories  []models.ProjectCategory
	PledgeTypes []models.PledgeType
}

// ApplyCatalog inserts any missing catalog rows and returns all of them.
// Running it twice is a no-op.
func ApplyCatalog(db *gorm.DB, c *Catalog) (*CatalogRows, error) {
	rows := &CatalogRows{}
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, name := range c.Locations {
			loc := models.Location{}
			if err := tx.Where(models.Location{Name: name}).FirstOrCreate(&loc).Error; err != nil {
				return fmt.Errorf("location %q: %w", name, err)
			}
			rows.Locations = append(rows.Locations, loc)
		}
		for _, name := range c.Categories {
			cat := models.ProjectCategory{}
			if err := tx.Where(models.ProjectCategory{Name: name}).FirstOrCreate(&cat).Error; err != nil {
				return fmt.Errorf("category %q: %w", name, err)
			}
			rows.Categories = append(rows.Categories, cat)
		}
		for _, label := range c.PledgeTypes {
			pt := models.PledgeType{}
			if err := tx.Where(models.PledgeType{Type: label}).FirstOrCreate(&pt).Error; err != nil {
				return fmt.Errorf("pledge type %q: %w", label, err)
			}
			rows.PledgeTypes = append(rows.PledgeTypes, pt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateCatalog(context.Background())
	return rows, nil
}
