package spice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/test/testutils"
)

func dishNames(dishes []spice.Dish) []string {
	names := make([]string, len(dishes))
	for i, d := range dishes {
		names[i] = d.Name
	}
	return names
}

func TestFilter_SupersetScenario(t *testing.T) {
	dishes := []spice.Dish{
		{Name: "Full", Spices: []string{"Cumin", "Turmeric", "Coriander"}},
		{Name: "CuminOnly", Spices: []string{"Cumin"}},
	}

	got := spice.Filter(dishes, []string{"Cumin", "Turmeric"})

	assert.Equal(t, []string{"Full"}, dishNames(got))
}

func TestFilter_EmptyBasketReturnsEverythingInOrder(t *testing.T) {
	dishes := testutils.ScenarioCatalog().Dishes()

	got := spice.Filter(dishes, nil)

	assert.Equal(t, dishes, got)
}

func TestFilter_NoMatchIsEmptyNotNil(t *testing.T) {
	got := spice.Filter(testutils.ScenarioCatalog().Dishes(), []string{"Saffron"})

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_IsCaseSensitive(t *testing.T) {
	dishes := []spice.Dish{{Name: "Jeera Rice", Spices: []string{"Cumin"}}}

	assert.Empty(t, spice.Filter(dishes, []string{"cumin"}))
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	dishes := testutils.ScenarioCatalog().Dishes()
	before := dishNames(dishes)

	_ = spice.Filter(dishes, []string{"Cumin"})

	assert.Equal(t, before, dishNames(dishes))
}

func TestFilter_PartitionProperty(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		factory := testutils.NewCatalogFactory(seed)
		catalog := factory.Catalog(12, 40)
		dishes := catalog.Dishes()
		basket := factory.Pick(catalog.Spices(), int(seed%4))

		got := spice.Filter(dishes, basket)

		included := make(map[string]bool, len(got))
		for _, d := range got {
			included[d.Name] = true
			assert.Truef(t, containsAll(d.Spices, basket), "seed %d: %s included without %v", seed, d.Name, basket)
		}
		for _, d := range dishes {
			if !included[d.Name] {
				assert.Falsef(t, containsAll(d.Spices, basket), "seed %d: %s excluded but has %v", seed, d.Name, basket)
			}
		}

		// Order is the catalog's order.
		var want []string
		for _, d := range dishes {
			if included[d.Name] {
				want = append(want, d.Name)
			}
		}
		assert.Equal(t, want, nilIfEmpty(dishNames(got)))
	}
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestDish_LinkPredicates(t *testing.T) {
	d := spice.Dish{ImageURL: "https://example.org/a.jpg", WikiURL: "not a link"}

	assert.True(t, d.HasImage())
	assert.False(t, d.HasWiki())
	assert.False(t, spice.Dish{}.HasImage())

	assert.True(t, spice.Dish{ImageURL: "http://example.org/a.jpg"}.HasImage())
	assert.True(t, spice.Dish{WikiURL: "HTTPS://en.wikipedia.org/wiki/Dal"}.HasWiki())
	assert.False(t, spice.Dish{ImageURL: "httpfoo.jpg"}.HasImage())
	assert.False(t, spice.Dish{ImageURL: "data:image/png;base64,AAAA"}.HasImage())
}

func TestDish_Validate(t *testing.T) {
	assert.NoError(t, spice.Dish{Name: "Dal", Spices: []string{"Cumin"}}.Validate())
	assert.ErrorIs(t, spice.Dish{Name: " ", Spices: []string{"Cumin"}}.Validate(), spice.ErrEmptyDishName)
	assert.ErrorIs(t, spice.Dish{Name: "Dal"}.Validate(), spice.ErrNoSpices)
	assert.ErrorIs(t, spice.Spice{}.Validate(), spice.ErrEmptySpiceName)
}
