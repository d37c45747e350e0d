package ingredient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe_FirstOccurrenceWinsIgnoringCase(t *testing.T) {
	in := []Ingredient{
		{ID: "1", Name: "Tomato", Confidence: 0.9},
		{ID: "2", Name: "tomato", Confidence: 0.95},
		{ID: "3", Name: "Basil", Confidence: 0.7},
		{ID: "4", Name: " TOMATO ", Confidence: 0.1},
	}

	out := Dedupe(in)

	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "Tomato", out[0].Name)
	assert.Equal(t, 0.9, out[0].Confidence)
	assert.Equal(t, "Basil", out[1].Name)
}

func TestDedupe_BackfillsIDsAndDropsEmptyNames(t *testing.T) {
	out := Dedupe([]Ingredient{
		{Name: "onion", Confidence: 0.8},
		{Name: "   ", Confidence: 0.5},
		{ID: "  ", Name: "rice", Confidence: 1.7},
	})

	require.Len(t, out, 2)
	for _, item := range out {
		assert.NotEmpty(t, strings.TrimSpace(item.ID))
	}
	assert.NotEqual(t, out[0].ID, out[1].ID)
	assert.Equal(t, 1.0, out[1].Confidence)
}

func TestDedupe_RepeatedIDsAreReminted(t *testing.T) {
	out := Dedupe([]Ingredient{
		{ID: "x", Name: "carrot"},
		{ID: "x", Name: "leek"},
		{ID: " x ", Name: "celery"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, "x", out[0].ID)
	ids := map[string]bool{}
	for _, item := range out {
		assert.False(t, ids[item.ID], "duplicate id %q", item.ID)
		ids[item.ID] = true
	}
}

func TestDedupe_NoTwoEntriesShareALowercasedName(t *testing.T) {
	out := Dedupe([]Ingredient{
		{Name: "Egg"}, {Name: "EGG"}, {Name: "egg"}, {Name: "Eggplant"},
	})

	seen := map[string]bool{}
	for _, item := range out {
		key := strings.ToLower(item.Name)
		assert.False(t, seen[key], "duplicate %q", key)
		seen[key] = true
	}
	assert.Len(t, out, 2)
}

func TestNewManual(t *testing.T) {
	item, err := NewManual("  Garlic ")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(item.ID, ManualIDPrefix))
	assert.Equal(t, "Garlic", item.Name)
	assert.Equal(t, 1.0, item.Confidence)
	assert.Equal(t, StatusAccepted, item.Status)

	_, err = NewManual(" ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestAcceptedAndContains(t *testing.T) {
	items := []Ingredient{
		{ID: "a", Name: "Tomato", Status: StatusAccepted},
		{ID: "b", Name: "Onion", Status: StatusPending},
		{ID: "c", Name: "Rice", Status: StatusRejected},
	}

	assert.Equal(t, []string{"Tomato"}, Names(Accepted(items)))
	assert.True(t, Contains(items, "onion"))
	assert.False(t, Contains(items, "garlic"))
	assert.True(t, StatusRejected.Valid())
	assert.False(t, Status("maybe").Valid())
}
