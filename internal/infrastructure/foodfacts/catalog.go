package foodfacts

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harvestchef/harvest/internal/domain/nutrition"
	"github.com/harvestchef/harvest/internal/ports/outbound"
)

// GetNutritionalInfo returns the per-100g macros of the first search hit
// that carries complete data, in catalog order. Nil when none qualifies.
func (c *Client) GetNutritionalInfo(ctx context.Context, ingredient string) *nutrition.Record {
	for _, p := range c.search(ctx, ingredient, nutritionCandidates) {
		if rec := p.Nutriments.record(); rec != nil {
			return rec
		}
	}
	c.logger.Debug("No nutritional data in catalog", zap.String("ingredient", ingredient))
	return nil
}

// FindRecipesByIngredients searches the catalog for prepared products made
// from the given ingredients and scores each by the share of ingredients its
// ingredient list mentions. Matches scoring above 0.3 are returned best first,
// at most ten.
func (c *Client) FindRecipesByIngredients(ctx context.Context, ingredients []string) []outbound.RecipeMatch {
	ingredients = nonEmpty(ingredients)
	if len(ingredients) == 0 {
		return []outbound.RecipeMatch{}
	}

	perIngredient := make([][]apiProduct, len(ingredients))
	var g errgroup.Group
	for i, ing := range ingredients {
		g.Go(func() error {
			perIngredient[i] = c.search(ctx, "recipe "+ing, recipeSearchPageSize)
			return nil
		})
	}
	_ = g.Wait()

	// a product found by several ingredient searches is listed once
	seen := make(map[string]struct{})
	matches := []outbound.RecipeMatch{}
	for _, products := range perIngredient {
		for _, p := range products {
			name := p.name()
			text := p.IngredientsText
			if name == "" || text == "" {
				continue
			}

			key := p.Code
			if key == "" {
				key = strings.ToLower(name)
			}
			if _, dup := seen[key]; dup {
				continue
			}

			matched := matchIngredients(ingredients, text)
			confidence := float64(len(matched)) / float64(len(ingredients))
			if confidence <= minRecipeConfidence {
				continue
			}

			seen[key] = struct{}{}
			product := p.toProduct()
			matches = append(matches, outbound.RecipeMatch{
				Product:             product,
				Confidence:          confidence,
				MatchingIngredients: matched,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	if len(matches) > maxRecipeMatches {
		matches = matches[:maxRecipeMatches]
	}
	return matches
}

// GetIngredientAlternatives collects up to five catalog categories related to
// the ingredient, in the order they are first seen.
func (c *Client) GetIngredientAlternatives(ctx context.Context, ingredient string) []string {
	needle := strings.ToLower(strings.TrimSpace(ingredient))
	alternatives := []string{}
	if needle == "" {
		return alternatives
	}

	seen := make(map[string]struct{})
	for _, p := range c.search(ctx, ingredient, alternativesPageSize) {
		for _, category := range strings.Split(p.Categories, ",") {
			category = strings.TrimSpace(category)
			if category == "" {
				continue
			}
			lower := strings.ToLower(category)
			if !strings.Contains(lower, needle) && !strings.Contains(needle, lower) {
				continue
			}
			if _, dup := seen[category]; dup {
				continue
			}
			seen[category] = struct{}{}
			alternatives = append(alternatives, category)
			if len(alternatives) == maxAlternatives {
				return alternatives
			}
		}
	}
	return alternatives
}

// matchIngredients returns the user ingredients mentioned in text, ignoring case.
func matchIngredients(ingredients []string, text string) []string {
	text = strings.ToLower(text)
	matched := []string{}
	for _, ing := range ingredients {
		if strings.Contains(text, strings.ToLower(ing)) {
			matched = append(matched, ing)
		}
	}
	return matched
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
