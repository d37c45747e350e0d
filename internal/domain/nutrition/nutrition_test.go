package nutrition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHybrid_TomatoOnionRice(t *testing.T) {
	tomato := &Record{Calories: 18, Protein: 0.9, Fat: 0.2, Carbohydrates: 3.9, Fiber: 1.2, Sugar: 2.6}
	onion := &Record{Calories: 40, Protein: 1.1, Fat: 0.1, Carbohydrates: 9.3, Fiber: 1.7, Sugar: 4.2}
	rice := &Record{Calories: 130, Protein: 2.7, Fat: 0.3, Carbohydrates: 28, Fiber: 0.4, Sugar: 0.1}

	lookups := []Lookup{
		{Ingredient: "tomato", Record: tomato},
		{Ingredient: "onion", Record: onion},
		{Ingredient: "rice"},
	}

	a := Hybrid(lookups, rice, nil, 1, DefaultPortionFactor)

	assert.Equal(t, 2, a.DataSourcesCount)
	assert.Contains(t, a.DataSource, "2/3 ingredients")
	// 0.5*(18+40) + 130 = 159
	assert.Equal(t, "159 kcal", a.Calories)
	// 0.5*(0.9+1.1) + 2.7 = 3.7
	assert.Equal(t, "3.7g", a.Protein)
	assert.Equal(t, "1 serving", a.ServingSize)

	require.Len(t, a.IngredientBreakdown, 3)
	assert.True(t, a.IngredientBreakdown[0].DataAvailable)
	assert.Equal(t, 9.0, a.IngredientBreakdown[0].Calories)
	assert.Equal(t, 0.5, a.IngredientBreakdown[0].Protein)
	assert.False(t, a.IngredientBreakdown[2].DataAvailable)
	assert.Zero(t, a.IngredientBreakdown[2].Calories)
	assert.Contains(t, a.Disclaimer, "based on 2 ingredients")
	assert.Empty(t, a.UnestimatedIngredients)
}

func TestHybrid_DividesByServings(t *testing.T) {
	lookups := []Lookup{{Ingredient: "oats", Record: &Record{Calories: 400, Protein: 13, Fat: 7, Carbohydrates: 68, Fiber: 10, Sugar: 1}}}

	a := Hybrid(lookups, nil, nil, 4, DefaultPortionFactor)

	assert.Equal(t, "50 kcal", a.Calories)
	assert.Equal(t, "1.6g", a.Protein)
	assert.Equal(t, "0.9g", a.Fat)
	assert.Equal(t, "4 servings", a.ServingSize)
}

func TestHybrid_ZeroServingsTreatedAsOne(t *testing.T) {
	lookups := []Lookup{{Ingredient: "egg", Record: &Record{Calories: 155}}}

	a := Hybrid(lookups, nil, nil, 0, DefaultPortionFactor)

	assert.Equal(t, "78 kcal", a.Calories)
	assert.Equal(t, "1 serving", a.ServingSize)
}

func TestHybrid_FailedEstimateIsReported(t *testing.T) {
	lookups := []Lookup{
		{Ingredient: "tomato", Record: &Record{Calories: 18}},
		{Ingredient: "saffron"},
	}

	a := Hybrid(lookups, nil, []string{"saffron"}, 1, DefaultPortionFactor)

	assert.Equal(t, []string{"saffron"}, a.UnestimatedIngredients)
	assert.Contains(t, a.DataSource, "1/2 ingredients")
	assert.Contains(t, a.DataSource, "1 not estimated")
	assert.Contains(t, a.Disclaimer, "saffron")
}

func TestFromEstimate_NeverMentionsCatalog(t *testing.T) {
	a := FromEstimate(Estimate{
		Calories:    "420 kcal",
		Protein:     "12g",
		ServingSize: "1 bowl",
	}, []string{"quinoa", "kale"})

	assert.Equal(t, "AI estimation only", a.DataSource)
	assert.False(t, strings.Contains(strings.ToLower(a.DataSource), "open food facts"))
	assert.Zero(t, a.DataSourcesCount)
	assert.Equal(t, "1 bowl", a.ServingSize)
	require.Len(t, a.IngredientBreakdown, 2)
	for _, b := range a.IngredientBreakdown {
		assert.False(t, b.DataAvailable)
	}
	assert.Contains(t, a.Disclaimer, "not intended as a substitute")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "4g", FormatGrams(4))
	assert.Equal(t, "3.5g", FormatGrams(3.46))
	assert.Equal(t, "0g", FormatGrams(-0.01))
	assert.Equal(t, "0 kcal", FormatCalories(0.4))
	assert.Equal(t, "2 servings", ServingLabel(2))
	assert.Equal(t, []string{"b"}, Missing([]Lookup{{Ingredient: "a", Record: &Record{}}, {Ingredient: "b"}}))
}
