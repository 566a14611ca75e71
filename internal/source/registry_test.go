package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		Descriptor{ID: "social", Category: CategorySocial, DisplayName: "Social", Priority: 1},
		Descriptor{ID: "news", Category: CategoryNews, DisplayName: "News", Priority: 2},
		Descriptor{ID: "gov", Category: CategoryGovernment, DisplayName: "Government", Priority: 3},
	)
	require.NoError(t, err)
	return reg
}

func TestNewRegistry_DuplicateID(t *testing.T) {
	_, err := NewRegistry(
		Descriptor{ID: "news", DisplayName: "News", Priority: 1},
		Descriptor{ID: "news", DisplayName: "News Again", Priority: 2},
	)
	assert.Error(t, err)
}

func TestNewRegistry_EmptyID(t *testing.T) {
	_, err := NewRegistry(Descriptor{DisplayName: "Nameless", Priority: 1})
	assert.Error(t, err)
}

func TestRegistry_DefaultOrder(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{ID: "gov", Priority: 3},
		Descriptor{ID: "news", Priority: 2},
		Descriptor{ID: "social", Priority: 1},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"social", "news", "gov"}, reg.DefaultOrder())
}

func TestRegistry_DefaultOrder_TieBrokenByID(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{ID: "zeta", Priority: 1},
		Descriptor{ID: "alpha", Priority: 1},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, reg.DefaultOrder())
}

func TestRegistry_DefaultOrder_SkipsNegativePriority(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{ID: "twitter", Priority: 1},
		Descriptor{ID: "bluesky", Priority: -2},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"twitter"}, reg.DefaultOrder())

	// Disabled sources stay describable.
	d, err := reg.Describe("bluesky")
	require.NoError(t, err)
	assert.Equal(t, -2, d.Priority)
}

func TestRegistry_DefaultOrder_FreshSlice(t *testing.T) {
	reg := testRegistry(t)

	first := reg.DefaultOrder()
	first[0] = "mutated"

	assert.Equal(t, []string{"social", "news", "gov"}, reg.DefaultOrder())
}

func TestRegistry_Describe_NotFound(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Describe("reddit")
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestRegistry_ReorderForHint_MovesMatchToFront(t *testing.T) {
	reg := testRegistry(t)
	order := reg.DefaultOrder()

	got := reg.ReorderForHint(order, "news")
	assert.Equal(t, []string{"news", "social", "gov"}, got)

	// Original order untouched.
	assert.Equal(t, []string{"social", "news", "gov"}, order)
}

func TestRegistry_ReorderForHint_MatchesDisplayNameCaseInsensitive(t *testing.T) {
	reg := testRegistry(t)

	got := reg.ReorderForHint(reg.DefaultOrder(), "the GOVERNMENT said so")
	assert.Equal(t, []string{"gov", "social", "news"}, got)
}

func TestRegistry_ReorderForHint_NoMatchReturnsInputOrder(t *testing.T) {
	reg := testRegistry(t)
	order := reg.DefaultOrder()

	got := reg.ReorderForHint(order, "SP College")
	assert.Equal(t, order, got)
}

func TestRegistry_ReorderForHint_Idempotent(t *testing.T) {
	reg := testRegistry(t)
	order := reg.DefaultOrder()

	once := reg.ReorderForHint(order, "News")
	twice := reg.ReorderForHint(order, "News")
	assert.Equal(t, once, twice)

	// Reordering an already-biased order is a no-op.
	again := reg.ReorderForHint(once, "News")
	assert.Equal(t, once, again)
}

func TestRegistry_ReorderForHint_EmptyHint(t *testing.T) {
	reg := testRegistry(t)
	order := reg.DefaultOrder()

	assert.Equal(t, order, reg.ReorderForHint(order, "  "))
}
