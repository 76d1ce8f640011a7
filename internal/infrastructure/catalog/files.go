package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/ports/outbound"
)

// Resource names used in errors and logs.
const (
	ResourceDishes = "dishes"
	ResourceSpices = "spices"
)

// FileSource reads the catalog from a pair of CSV or XLSX files.
type FileSource struct {
	DishesPath string
	SpicesPath string
	Sheet      string

	decoder *rowDecoder
}

// NewFileSource creates a file-backed catalog source.
func NewFileSource(dishesPath, spicesPath, sheet string, policy Policy, logger *zap.Logger) *FileSource {
	if policy == "" {
		policy = PolicyFail
	}
	return &FileSource{
		DishesPath: dishesPath,
		SpicesPath: spicesPath,
		Sheet:      sheet,
		decoder: &rowDecoder{
			validate: NewValidator(),
			policy:   policy,
			logger:   logger.Named("catalog-rows"),
		},
	}
}

var _ outbound.CatalogSource = (*FileSource)(nil)

// Load reads both files. Either file missing fails the whole load.
func (s *FileSource) Load(ctx context.Context) (*spice.Catalog, error) {
	dishTable, err := readTable(ResourceDishes, s.DishesPath, s.Sheet, s.decoder)
	if err != nil {
		return nil, err
	}
	spiceTable, err := readTable(ResourceSpices, s.SpicesPath, s.Sheet, s.decoder)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dishes, err := s.decoder.dishes(dishTable)
	if err != nil {
		return nil, err
	}
	spices, err := s.decoder.spices(spiceTable)
	if err != nil {
		return nil, err
	}

	return spice.NewCatalog(spices, dishes), nil
}

// Describe implements outbound.CatalogSource.
func (s *FileSource) Describe() string {
	return fmt.Sprintf("files(%s, %s)", s.DishesPath, s.SpicesPath)
}

// Paths returns the files a watcher should observe.
func (s *FileSource) Paths() []string {
	return []string{s.DishesPath, s.SpicesPath}
}
