package spice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BasketTestSuite covers the selection state of a single session.
type BasketTestSuite struct {
	suite.Suite
	basket *Basket
}

func (suite *BasketTestSuite) SetupTest() {
	suite.basket = NewBasket()
}

func (suite *BasketTestSuite) TestAdd() {
	suite.Run("NewSpice_ShouldAppend", func() {
		b := NewBasket()

		added := b.Add("Cumin")

		assert.True(suite.T(), added)
		assert.Equal(suite.T(), []string{"Cumin"}, b.Items())
		assert.True(suite.T(), b.Contains("Cumin"))
	})

	suite.Run("SameSpiceTwice_ShouldBeIdempotent", func() {
		b := NewBasket()

		first := b.Add("Cumin")
		second := b.Add("Cumin")

		assert.True(suite.T(), first)
		assert.False(suite.T(), second)
		assert.Equal(suite.T(), 1, b.Len())
	})

	suite.Run("ManySpices_ShouldKeepFirstInsertionOrder", func() {
		b := NewBasket()

		for _, name := range []string{"Turmeric", "Cumin", "Turmeric", "Cardamom", "Cumin"} {
			b.Add(name)
		}

		assert.Equal(suite.T(), []string{"Turmeric", "Cumin", "Cardamom"}, b.Items())
	})

	suite.Run("Add_ShouldNotResetSearchFlag", func() {
		b := NewBasket()
		b.Add("Cumin")
		b.TriggerSearch()

		b.Add("Turmeric")

		assert.True(suite.T(), b.SearchTriggered())
	})
}

func (suite *BasketTestSuite) TestClear() {
	suite.Run("AfterSearch_ShouldResetEverything", func() {
		suite.basket.Add("Cumin")
		suite.basket.Add("Turmeric")
		suite.basket.TriggerSearch()

		suite.basket.Clear()

		assert.True(suite.T(), suite.basket.IsEmpty())
		assert.Empty(suite.T(), suite.basket.Items())
		assert.False(suite.T(), suite.basket.SearchTriggered())
	})

	suite.Run("EmptyBasket_ShouldStayEmpty", func() {
		b := NewBasket()

		b.Clear()

		assert.Equal(suite.T(), 0, b.Len())
		assert.False(suite.T(), b.SearchTriggered())
	})
}

func (suite *BasketTestSuite) TestTriggerSearch() {
	suite.Run("EmptyBasket_ShouldStillSetFlag", func() {
		b := NewBasket()

		b.TriggerSearch()

		assert.True(suite.T(), b.SearchTriggered())
	})
}

func (suite *BasketTestSuite) TestEvents() {
	b := NewBasket()
	b.Add("Cumin")
	b.Add("Cumin")
	b.TriggerSearch()
	b.Clear()

	events := b.PullEvents()
	require.Len(suite.T(), events, 3)

	added, ok := events[0].(SpiceAddedEvent)
	require.True(suite.T(), ok, "should emit SpiceAddedEvent")
	assert.Equal(suite.T(), "Cumin", added.Spice)
	assert.Equal(suite.T(), 1, added.Position)

	searched, ok := events[1].(SearchTriggeredEvent)
	require.True(suite.T(), ok, "should emit SearchTriggeredEvent")
	assert.Equal(suite.T(), []string{"Cumin"}, searched.Spices)

	cleared, ok := events[2].(BasketClearedEvent)
	require.True(suite.T(), ok, "should emit BasketClearedEvent")
	assert.Equal(suite.T(), 1, cleared.Removed)

	assert.Empty(suite.T(), b.PullEvents(), "events are drained once pulled")
}

func (suite *BasketTestSuite) TestSnapshotRoundTrip() {
	b := NewBasket()
	b.Add("Cumin")
	b.Add("Turmeric")
	b.TriggerSearch()

	restored := RestoreBasket(b.Snapshot())

	assert.Equal(suite.T(), b.Items(), restored.Items())
	assert.True(suite.T(), restored.SearchTriggered())
	assert.Empty(suite.T(), restored.PullEvents())
}

func (suite *BasketTestSuite) TestRestoreBasket_CollapsesDuplicates() {
	restored := RestoreBasket(BasketSnapshot{Spices: []string{"Cumin", "Clove", "Cumin"}})

	assert.Equal(suite.T(), []string{"Cumin", "Clove"}, restored.Items())
	assert.False(suite.T(), restored.SearchTriggered())
}

func (suite *BasketTestSuite) TestItems_ReturnsCopy() {
	suite.basket.Add("Cumin")

	items := suite.basket.Items()
	items[0] = "Mutated"

	assert.Equal(suite.T(), []string{"Cumin"}, suite.basket.Items())
}

func TestBasketTestSuite(t *testing.T) {
	suite.Run(t, new(BasketTestSuite))
}
