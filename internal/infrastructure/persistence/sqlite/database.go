// Package sqlite provides SQLite database setup and the SQLite catalog source
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/infrastructure/catalog"
	gormModels "github.com/spiceshelf/shelf/internal/infrastructure/persistence/gorm"
	"github.com/spiceshelf/shelf/internal/ports/outbound"
	apperrors "github.com/spiceshelf/shelf/pkg/errors"
)

// SetupDatabase opens the SQLite database and migrates the catalog tables
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if dbPath == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&gormModels.SpiceModel{}, &gormModels.DishModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Import replaces the catalog tables with c in a single transaction
func Import(ctx context.Context, db *gorm.DB, c *spice.Catalog) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&gormModels.DishModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear dishes: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&gormModels.SpiceModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear spices: %w", err)
		}

		for i, s := range c.Spices() {
			if err := tx.Create(gormModels.SpiceToModel(s, i)).Error; err != nil {
				return fmt.Errorf("failed to insert spice %q: %w", s.Name, err)
			}
		}
		for i, d := range c.Dishes() {
			if err := tx.Create(gormModels.DishToModel(d, i)).Error; err != nil {
				return fmt.Errorf("failed to insert dish %q: %w", d.Name, err)
			}
		}
		return nil
	})
}

// CatalogSource reads the catalog from the dishes and spices tables. Rows are
// reported 1-based in table order, the same numbering Import writes.
type CatalogSource struct {
	path   string
	db     *gorm.DB
	policy catalog.Policy
	logger *zap.Logger
}

// NewCatalogSource creates a source over an existing database file
func NewCatalogSource(path string) *CatalogSource {
	return &CatalogSource{path: path, policy: catalog.PolicyFail, logger: zap.NewNop()}
}

// NewCatalogSourceFromDB creates a source over an open database
func NewCatalogSourceFromDB(db *gorm.DB) *CatalogSource {
	return &CatalogSource{path: ":memory:", db: db, policy: catalog.PolicyFail, logger: zap.NewNop()}
}

// WithPolicy sets what happens to rows that fail validation.
func (s *CatalogSource) WithPolicy(policy catalog.Policy, logger *zap.Logger) *CatalogSource {
	if policy != "" {
		s.policy = policy
	}
	s.logger = logger.Named("catalog-rows")
	return s
}

var _ outbound.CatalogSource = (*CatalogSource)(nil)

// Load implements outbound.CatalogSource
func (s *CatalogSource) Load(ctx context.Context) (*spice.Catalog, error) {
	db := s.db
	if db == nil {
		if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewMissingResourceError("catalog database", s.path)
		}
		opened, err := SetupDatabase(s.path, logger.Silent)
		if err != nil {
			return nil, err
		}
		sqlDB, err := opened.DB()
		if err != nil {
			return nil, err
		}
		defer sqlDB.Close()
		db = opened
	}

	var spiceModels []gormModels.SpiceModel
	if err := db.WithContext(ctx).Order("position").Find(&spiceModels).Error; err != nil {
		return nil, fmt.Errorf("failed to read spices: %w", err)
	}
	var dishModels []gormModels.DishModel
	if err := db.WithContext(ctx).Order("position").Find(&dishModels).Error; err != nil {
		return nil, fmt.Errorf("failed to read dishes: %w", err)
	}

	spices := make([]spice.Spice, 0, len(spiceModels))
	for i := range spiceModels {
		sp := gormModels.ModelToSpice(&spiceModels[i])
		if err := sp.Validate(); err != nil {
			if err := s.reject(catalog.ResourceSpices, spiceModels[i].Position+1, err); err != nil {
				return nil, err
			}
			continue
		}
		spices = append(spices, sp)
	}
	dishes := make([]spice.Dish, 0, len(dishModels))
	for i := range dishModels {
		d := gormModels.ModelToDish(&dishModels[i])
		if err := d.Validate(); err != nil {
			if err := s.reject(catalog.ResourceDishes, dishModels[i].Position+1, err); err != nil {
				return nil, err
			}
			continue
		}
		dishes = append(dishes, d)
	}

	return spice.NewCatalog(spices, dishes), nil
}

func (s *CatalogSource) reject(resource string, row int, cause error) error {
	if s.policy == catalog.PolicySkip {
		s.logger.Warn("Skipping malformed catalog row",
			zap.String("resource", resource),
			zap.Int("row", row),
			zap.Error(cause),
		)
		return nil
	}
	return apperrors.NewMalformedRowError(resource, row, cause)
}

// Describe implements outbound.CatalogSource
func (s *CatalogSource) Describe() string {
	return "sqlite(" + s.path + ")"
}
