package config

import (
	"fmt"

	"github.com/edulink/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var defaultPackages = []models.CreditPackage{
	{ID: "starter", Credits: 5, BonusCredits: 0, PriceLabel: "$4.99"},
	{ID: "standard", Credits: 10, BonusCredits: 3, PriceLabel: "$9.99"},
	{ID: "pro", Credits: 25, BonusCredits: 10, PriceLabel: "$19.99"},
}

// Catalog is the static price -> credits mapping. It is read-only after
// construction.
type Catalog struct {
	packages []models.CreditPackage
	byID     map[string]models.CreditPackage
}

type catalogFile struct {
	Packages []models.CreditPackage `mapstructure:"packages" validate:"required,min=1,unique=ID,dive"`
}

// NewCatalog validates packages and builds a catalog from them.
func NewCatalog(packages []models.CreditPackage) (*Catalog, error) {
	if err := validator.New().Struct(catalogFile{Packages: packages}); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c := &Catalog{
		packages: make([]models.CreditPackage, len(packages)),
		byID:     make(map[string]models.CreditPackage, len(packages)),
	}
	copy(c.packages, packages)
	for _, p := range packages {
		c.byID[p.ID] = p
	}
	return c, nil
}

// LoadCatalog reads catalog.packages, or the YAML file named by
// catalog.file, falling back to the built-in packages.
func LoadCatalog(v *viper.Viper) (*Catalog, error) {
	var file catalogFile

	switch {
	case v.GetString("catalog.file") != "":
		cv := viper.New()
		cv.SetConfigFile(v.GetString("catalog.file"))
		if err := cv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		if err := cv.UnmarshalKey("packages", &file.Packages); err != nil {
			return nil, fmt.Errorf("decode catalog file: %w", err)
		}
	case v.IsSet("catalog.packages"):
		if err := v.UnmarshalKey("catalog.packages", &file.Packages); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	default:
		file.Packages = defaultPackages
	}

	return NewCatalog(file.Packages)
}

func (c *Catalog) Lookup(packageID string) (models.CreditPackage, bool) {
	p, ok := c.byID[packageID]
	return p, ok
}

// Packages returns a copy of the catalog entries in configured order.
func (c *Catalog) Packages() []models.CreditPackage {
	out := make([]models.CreditPackage, len(c.packages))
	copy(out, c.packages)
	return out
}
