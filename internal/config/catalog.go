package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"silo-dispatch/internal/model"
)

// Catalog holds per-product defaults keyed by productKey.
type Catalog struct {
	Products map[string]ProductConfig `yaml:"products"`
}

// ProductConfig is the on-disk shape of one product's defaults.
type ProductConfig struct {
	Name           string             `yaml:"name" json:"name,omitempty"`
	MinLevel       model.Level        `yaml:"min_level" json:"min_level,omitempty"`
	MaxLevel       model.Level        `yaml:"max_level" json:"max_level,omitempty"`
	DeliveryAmount model.Mass         `yaml:"delivery_amount" json:"delivery_amount,omitempty"`
	DailyUsage     []model.DailyUsage `yaml:"daily_usage" json:"daily_usage,omitempty"`
	ConversionRate model.Factor       `yaml:"conversion_rate" json:"conversion_rate,omitempty"`
	Unit           model.UnitTag      `yaml:"unit" json:"unit,omitempty"`
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if len(c.Products) == 0 {
		return nil, fmt.Errorf("catalog %s: no products", path)
	}
	return &c, nil
}

// Keys returns the product keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Products))
	for k := range c.Products {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Catalog) Product(key string) (ProductConfig, error) {
	if c == nil {
		return ProductConfig{}, fmt.Errorf("%w: %q (no catalog loaded)", model.ErrUnknownProduct, key)
	}
	p, ok := c.Products[key]
	if !ok {
		return ProductConfig{}, fmt.Errorf("%w: %q", model.ErrUnknownProduct, key)
	}
	return p, nil
}

// Settings builds simulation settings for productKey from the catalog
// defaults with override's non-zero fields on top.
func (c *Catalog) Settings(productKey string, start, end time.Time, current model.Level, override ProductConfig) (model.Settings, error) {
	base, err := c.Product(productKey)
	if err != nil {
		return model.Settings{}, err
	}
	return MergeProduct(base, override).Settings(productKey, start, end, current), nil
}

// Settings turns product defaults into simulation settings.
func (p ProductConfig) Settings(productKey string, start, end time.Time, current model.Level) model.Settings {
	return model.Settings{
		ProductKey:     productKey,
		MinLevel:       p.MinLevel,
		MaxLevel:       p.MaxLevel,
		CurrentStock:   current,
		DeliveryAmount: p.DeliveryAmount,
		DailyUsage:     append([]model.DailyUsage(nil), p.DailyUsage...),
		StartDate:      start,
		EndDate:        end,
		ConversionRate: p.ConversionRate,
		Unit:           p.Unit,
	}
}

// MergeProduct overlays non-zero fields from override onto base.
func MergeProduct(base, override ProductConfig) ProductConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	// A zero min_level is a legitimate floor, but it cannot be told apart
	// from an absent override here.
	if override.MinLevel != 0 {
		out.MinLevel = override.MinLevel
	}
	if override.MaxLevel != 0 {
		out.MaxLevel = override.MaxLevel
	}
	if override.DeliveryAmount != 0 {
		out.DeliveryAmount = override.DeliveryAmount
	}
	if len(override.DailyUsage) > 0 {
		out.DailyUsage = override.DailyUsage
	}
	if override.ConversionRate != 0 {
		out.ConversionRate = override.ConversionRate
	}
	if override.Unit != "" {
		out.Unit = override.Unit
	}
	return out
}

// settingsFile is the CLI settings shape. With catalog_file set, the inline
// fields override the catalog entry named by product_key.
type settingsFile struct {
	CatalogFile    string `yaml:"catalog_file"`
	model.Settings `yaml:",inline"`
}

// LoadSettings reads and validates a settings YAML file.
func LoadSettings(path string) (model.Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Settings{}, err
	}
	var f settingsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return model.Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	s := f.Settings

	if f.CatalogFile != "" {
		catalogPath := f.CatalogFile
		if !filepath.IsAbs(catalogPath) {
			// Relative to the settings file when it exists there, else to cwd.
			cand := filepath.Join(filepath.Dir(path), catalogPath)
			if _, err := os.Stat(cand); err == nil {
				catalogPath = cand
			}
		}
		cat, err := LoadCatalog(catalogPath)
		if err != nil {
			return model.Settings{}, err
		}
		s, err = cat.Settings(s.ProductKey, s.StartDate, s.EndDate, s.CurrentStock, ProductConfig{
			MinLevel:       s.MinLevel,
			MaxLevel:       s.MaxLevel,
			DeliveryAmount: s.DeliveryAmount,
			DailyUsage:     s.DailyUsage,
			ConversionRate: s.ConversionRate,
			Unit:           s.Unit,
		})
		if err != nil {
			return model.Settings{}, err
		}
	}

	if err := s.Validate(); err != nil {
		return model.Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}
