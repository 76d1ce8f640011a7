package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	apperrors "github.com/spiceshelf/shelf/pkg/errors"
)

// Column names of the two tables.
const (
	colDishName = "dish_name"
	colRegion   = "region"
	colCategory = "category"
	colHeat     = "heat"
	colSpices   = "spices"
	colImageURL = "image_url"
	colWikiURL  = "wiki_url"

	colSpiceName = "spice_name"
	colAlias     = "alias"
	colColor     = "color"
)

const defaultSwatch = "#eee"

// Policy decides what happens to a row that cannot be decoded.
type Policy string

const (
	// PolicyFail aborts the whole load on the first bad row.
	PolicyFail Policy = "fail"
	// PolicySkip logs the row and carries on.
	PolicySkip Policy = "skip"
)

type dishRow struct {
	Name     string   `validate:"required,nonblank"`
	Region   string   `validate:"max=100"`
	Category string   `validate:"max=100"`
	Heat     string   `validate:"max=50"`
	Spices   []string `validate:"min=1,dive,nonblank"`
	ImageURL string
	WikiURL  string
}

type spiceRow struct {
	Name  string `validate:"required,nonblank"`
	Alias string
	Color string `validate:"omitempty,hexcolor"`
}

// NewValidator returns the validator used for catalog rows.
func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("nonblank", validateNonBlank)
	return validate
}

func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// rowDecoder turns table rows into domain values under a policy.
type rowDecoder struct {
	validate *validator.Validate
	policy   Policy
	logger   *zap.Logger
}

// reject applies the policy to a bad row. It returns a non-nil error only when
// the load must stop.
func (d *rowDecoder) reject(resource string, line int, cause error) error {
	err := apperrors.NewMalformedRowError(resource, line, cause)
	if d.policy == PolicySkip {
		d.logger.Warn("Skipping malformed catalog row",
			zap.String("resource", resource),
			zap.Int("row", line),
			zap.Error(cause),
		)
		return nil
	}
	return err
}

// parseError maps a CSV tokenizing error to a malformed row and applies the
// policy to it. Other errors are returned unchanged.
func (d *rowDecoder) parseError(resource string, err error) error {
	var perr *csv.ParseError
	if !errors.As(err, &perr) {
		return err
	}
	return d.reject(resource, perr.StartLine, perr.Err)
}

func (d *rowDecoder) dishes(t *table) ([]spice.Dish, error) {
	if err := t.require(colDishName, colSpices); err != nil {
		return nil, err
	}

	dishes := make([]spice.Dish, 0, len(t.rows))
	for i, rec := range t.rows {
		if blank(rec) {
			continue
		}

		row := dishRow{
			Name:     t.cell(rec, colDishName),
			Region:   t.cell(rec, colRegion),
			Category: t.cell(rec, colCategory),
			Heat:     t.cell(rec, colHeat),
			ImageURL: t.cell(rec, colImageURL),
			WikiURL:  t.cell(rec, colWikiURL),
		}

		raw := t.cell(rec, colSpices)
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &row.Spices); err != nil {
				if err := d.reject(t.resource, t.line(i), fmt.Errorf("spices: %w", err)); err != nil {
					return nil, err
				}
				continue
			}
		}

		if err := d.validate.Struct(row); err != nil {
			if err := d.reject(t.resource, t.line(i), err); err != nil {
				return nil, err
			}
			continue
		}

		dishes = append(dishes, spice.Dish{
			Name:     row.Name,
			Region:   row.Region,
			Category: row.Category,
			Heat:     row.Heat,
			Spices:   row.Spices,
			ImageURL: row.ImageURL,
			WikiURL:  row.WikiURL,
		})
	}
	return dishes, nil
}

func (d *rowDecoder) spices(t *table) ([]spice.Spice, error) {
	if err := t.require(colSpiceName); err != nil {
		return nil, err
	}

	spices := make([]spice.Spice, 0, len(t.rows))
	for i, rec := range t.rows {
		if blank(rec) {
			continue
		}

		row := spiceRow{
			Name:  t.cell(rec, colSpiceName),
			Alias: t.cell(rec, colAlias),
			Color: t.cell(rec, colColor),
		}
		if err := d.validate.Struct(row); err != nil {
			if err := d.reject(t.resource, t.line(i), err); err != nil {
				return nil, err
			}
			continue
		}
		if row.Color == "" {
			row.Color = defaultSwatch
		}

		spices = append(spices, spice.Spice{Name: row.Name, Alias: row.Alias, Color: row.Color})
	}
	return spices, nil
}
