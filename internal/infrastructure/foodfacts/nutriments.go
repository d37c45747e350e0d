package foodfacts

import (
	"math"
	"strconv"
	"strings"

	"github.com/harvestchef/harvest/internal/domain/nutrition"
)

// Nutriment keys, all per 100 g.
const (
	keyEnergyKcal    = "energy-kcal_100g"
	keyProteins      = "proteins_100g"
	keyFat           = "fat_100g"
	keyCarbohydrates = "carbohydrates_100g"
	keyFiber         = "fiber_100g"
	keySugars        = "sugars_100g"
)

// nutriments keeps the catalog's loosely typed values; numbers sometimes
// arrive as strings.
type nutriments map[string]any

func (n nutriments) value(key string) (float64, bool) {
	raw, ok := n[key]
	if !ok || raw == nil {
		return 0, false
	}

	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// record returns the macro record when calories, protein, fat and
// carbohydrates are all present. Fiber and sugar default to zero.
func (n nutriments) record() *nutrition.Record {
	if len(n) == 0 {
		return nil
	}

	calories, ok1 := n.value(keyEnergyKcal)
	protein, ok2 := n.value(keyProteins)
	fat, ok3 := n.value(keyFat)
	carbs, ok4 := n.value(keyCarbohydrates)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}

	fiber, _ := n.value(keyFiber)
	sugar, _ := n.value(keySugars)

	return &nutrition.Record{
		Calories:      calories,
		Protein:       protein,
		Fat:           fat,
		Carbohydrates: carbs,
		Fiber:         fiber,
		Sugar:         sugar,
	}
}
