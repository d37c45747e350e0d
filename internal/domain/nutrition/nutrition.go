// Package nutrition holds the macro-nutrient arithmetic shared by the
// reconciler and the HTTP layer.
package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultPortionFactor scales a per-100g catalog value to the share of a
// recipe portion one ingredient is assumed to contribute.
const DefaultPortionFactor = 0.5

// Record is the macro content of an ingredient per 100 g, or an aggregate
// estimate when returned by the model. A nil *Record means "no data".
type Record struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fiber         float64 `json:"fiber"`
	Sugar         float64 `json:"sugar"`
}

// Add returns the component-wise sum of r and o.
func (r Record) Add(o Record) Record {
	return Record{
		Calories:      r.Calories + o.Calories,
		Protein:       r.Protein + o.Protein,
		Fat:           r.Fat + o.Fat,
		Carbohydrates: r.Carbohydrates + o.Carbohydrates,
		Fiber:         r.Fiber + o.Fiber,
		Sugar:         r.Sugar + o.Sugar,
	}
}

// Scale multiplies every macro by f.
func (r Record) Scale(f float64) Record {
	return Record{
		Calories:      r.Calories * f,
		Protein:       r.Protein * f,
		Fat:           r.Fat * f,
		Carbohydrates: r.Carbohydrates * f,
		Fiber:         r.Fiber * f,
		Sugar:         r.Sugar * f,
	}
}

// Breakdown is one ingredient's portioned contribution.
type Breakdown struct {
	Ingredient    string  `json:"ingredient"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	DataAvailable bool    `json:"dataAvailable"`
}

// Analysis is the per-serving result shown to the visitor.
type Analysis struct {
	Calories               string      `json:"calories"`
	Protein                string      `json:"protein"`
	Fat                    string      `json:"fat"`
	Carbohydrates          string      `json:"carbohydrates"`
	Fiber                  string      `json:"fiber"`
	Sugar                  string      `json:"sugar"`
	ServingSize            string      `json:"servingSize"`
	DataSource             string      `json:"dataSource"`
	DataSourcesCount       int         `json:"dataSourcesCount"`
	IngredientBreakdown    []Breakdown `json:"ingredientBreakdown"`
	Disclaimer             string      `json:"disclaimer"`
	UnestimatedIngredients []string    `json:"unestimatedIngredients,omitempty"`
}

// Estimate is a whole-recipe analysis produced by the model with its own
// formatting, used when no ingredient has catalog data.
type Estimate struct {
	Calories      string `json:"calories"`
	Protein       string `json:"protein"`
	Fat           string `json:"fat"`
	Carbohydrates string `json:"carbohydrates"`
	Fiber         string `json:"fiber"`
	Sugar         string `json:"sugar"`
	ServingSize   string `json:"servingSize"`
	Disclaimer    string `json:"disclaimer"`
}

// HasCalories reports whether the estimate carries a calorie figure. An
// estimate without one carries no usable analysis.
func (e Estimate) HasCalories() bool {
	return strings.TrimSpace(e.Calories) != ""
}

// Lookup pairs an ingredient with the catalog record found for it, if any.
type Lookup struct {
	Ingredient string
	Record     *Record
}

// Missing returns the ingredients that have no catalog record, in order.
func Missing(lookups []Lookup) []string {
	var names []string
	for _, l := range lookups {
		if l.Record == nil {
			names = append(names, l.Ingredient)
		}
	}
	return names
}

// Hybrid merges catalog records with the model's estimate for the remaining
// ingredients. estimate is nil when nothing was missing or when the estimate
// call failed; in the latter case unestimated names the ingredients whose
// contribution is absent from the totals.
func Hybrid(lookups []Lookup, estimate *Record, unestimated []string, servings int, portionFactor float64) Analysis {
	servings = NormalizeServings(servings)

	var (
		total     Record
		realCount int
		breakdown = make([]Breakdown, 0, len(lookups))
	)

	for _, l := range lookups {
		if l.Record == nil {
			breakdown = append(breakdown, Breakdown{Ingredient: l.Ingredient})
			continue
		}
		portion := l.Record.Scale(portionFactor)
		total = total.Add(portion)
		realCount++
		breakdown = append(breakdown, Breakdown{
			Ingredient:    l.Ingredient,
			Calories:      math.Round(portion.Calories),
			Protein:       Round1(portion.Protein),
			Fat:           Round1(portion.Fat),
			Carbohydrates: Round1(portion.Carbohydrates),
			DataAvailable: true,
		})
	}

	if estimate != nil {
		total = total.Add(*estimate)
	}

	perServing := total.Scale(1 / float64(servings))

	return Analysis{
		Calories:               FormatCalories(perServing.Calories),
		Protein:                FormatGrams(perServing.Protein),
		Fat:                    FormatGrams(perServing.Fat),
		Carbohydrates:          FormatGrams(perServing.Carbohydrates),
		Fiber:                  FormatGrams(perServing.Fiber),
		Sugar:                  FormatGrams(perServing.Sugar),
		ServingSize:            ServingLabel(servings),
		DataSource:             DataSource(realCount, len(lookups), len(unestimated)),
		DataSourcesCount:       realCount,
		IngredientBreakdown:    breakdown,
		Disclaimer:             Disclaimer(realCount, unestimated),
		UnestimatedIngredients: unestimated,
	}
}

// FromEstimate wraps a whole-recipe model estimate. Every ingredient is
// listed in the breakdown without data.
func FromEstimate(e Estimate, ingredients []string) Analysis {
	breakdown := make([]Breakdown, 0, len(ingredients))
	for _, ing := range ingredients {
		breakdown = append(breakdown, Breakdown{Ingredient: ing})
	}

	disclaimer := strings.TrimSpace(e.Disclaimer)
	if disclaimer == "" {
		disclaimer = Disclaimer(0, nil)
	}

	return Analysis{
		Calories:            e.Calories,
		Protein:             e.Protein,
		Fat:                 e.Fat,
		Carbohydrates:       e.Carbohydrates,
		Fiber:               e.Fiber,
		Sugar:               e.Sugar,
		ServingSize:         e.ServingSize,
		DataSource:          DataSource(0, len(ingredients), 0),
		IngredientBreakdown: breakdown,
		Disclaimer:          disclaimer,
	}
}

// NormalizeServings treats anything below one as a single serving.
func NormalizeServings(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormatCalories renders an integer kcal value.
func FormatCalories(v float64) string {
	return fmt.Sprintf("%d kcal", int64(math.Round(v)))
}

// FormatGrams renders grams with at most one decimal.
func FormatGrams(v float64) string {
	v = Round1(v)
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "g"
}

// ServingLabel renders "1 serving" or "N servings".
func ServingLabel(n int) string {
	n = NormalizeServings(n)
	if n == 1 {
		return "1 serving"
	}
	return fmt.Sprintf("%d servings", n)
}

// DataSource names where the numbers came from. The catalog is only
// mentioned when it contributed at least one ingredient.
func DataSource(realCount, total, unestimated int) string {
	var label string
	if realCount > 0 {
		label = fmt.Sprintf("Open Food Facts database (%d/%d ingredients) + AI estimation", realCount, total)
	} else {
		label = "AI estimation only"
	}
	if unestimated > 0 {
		label += fmt.Sprintf(" (%d not estimated)", unestimated)
	}
	return label
}

// Disclaimer returns the fixed accuracy caveat for an analysis.
func Disclaimer(realCount int, unestimated []string) string {
	var b strings.Builder
	if realCount > 0 {
		fmt.Fprintf(&b, "Nutritional information is based on %d ingredients from the Open Food Facts database and AI estimation for the remaining ingredients.", realCount)
	} else {
		b.WriteString("Nutritional information is an AI-generated estimate.")
	}
	b.WriteString(" Values are approximate and may vary based on preparation methods, portion sizes, and specific product brands.")
	if len(unestimated) > 0 {
		fmt.Fprintf(&b, " No estimate could be produced for %s, so their contribution is not included.", strings.Join(unestimated, ", "))
	}
	b.WriteString(" This information is not intended as a substitute for professional dietary advice.")
	return b.String()
}
