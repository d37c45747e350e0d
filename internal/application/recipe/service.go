// Package recipe provides the application layer for recipe generation.
// This implements the use cases defined in the inbound ports.
package recipe

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/errors"
)

// AI recipes in the enhanced blend are trusted at a fixed confidence.
const aiConfidence = 0.8

// Options tunes how many recipes are requested and returned.
type Options struct {
	Count            int
	CatalogMatches   int
	MaxEnhanced      int
	ImageConcurrency int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{Count: 3, CatalogMatches: 2, MaxEnhanced: 5, ImageConcurrency: 4}
}

// RecipeService implements the recipe generation use cases
type RecipeService struct {
	model   outbound.GenerativeModel
	catalog outbound.FoodCatalog
	images  outbound.ImageStore
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.MetricsCollector
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new recipe service
func NewRecipeService(
	model outbound.GenerativeModel,
	catalog outbound.FoodCatalog,
	images outbound.ImageStore,
	opts Options,
	logger *zap.Logger,
	metrics *monitoring.MetricsCollector,
) *RecipeService {
	def := DefaultOptions()
	if opts.Count < 1 {
		opts.Count = def.Count
	}
	if opts.CatalogMatches < 0 {
		opts.CatalogMatches = def.CatalogMatches
	}
	if opts.MaxEnhanced < 1 {
		opts.MaxEnhanced = def.MaxEnhanced
	}
	if opts.ImageConcurrency < 1 {
		opts.ImageConcurrency = def.ImageConcurrency
	}

	return &RecipeService{
		model:   model,
		catalog: catalog,
		images:  images,
		opts:    opts,
		logger:  logger.Named("recipe-service"),
		metrics: metrics,
	}
}

// SuggestByIngredients asks the model for recipes that use only the given
// ingredients. A model failure yields an empty list, not an error.
func (s *RecipeService) SuggestByIngredients(ctx context.Context, ingredients []string) ([]recipe.Recipe, error) {
	ingredients = cleanList(ingredients)
	if len(ingredients) == 0 {
		return nil, errors.NewValidationError("at least one ingredient is required")
	}

	s.logger.Info("Suggesting recipes", zap.Strings("ingredients", ingredients))

	ideas, err := s.model.SuggestRecipes(ctx, ingredients, s.opts.Count)
	if err != nil {
		s.logger.Warn("Recipe suggestion failed, returning no recipes", zap.Error(err))
		return []recipe.Recipe{}, nil
	}

	return s.fromIdeas(ctx, ideas), nil
}

// FindByName asks the model for recipes matching a free-text query. A model
// failure yields an empty list, not an error.
func (s *RecipeService) FindByName(ctx context.Context, query string) ([]recipe.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationError("query is required")
	}

	s.logger.Info("Searching recipes", zap.String("query", query))

	ideas, err := s.model.FindRecipes(ctx, query, s.opts.Count)
	if err != nil {
		s.logger.Warn("Recipe search failed, returning no recipes", zap.Error(err))
		return []recipe.Recipe{}, nil
	}

	return s.fromIdeas(ctx, ideas), nil
}

// Enhanced blends catalog-derived suggestions with detailed AI recipes.
// Catalog matches come first. Either source may be empty.
func (s *RecipeService) Enhanced(ctx context.Context, cmd inbound.EnhancedCommand) ([]recipe.Recipe, error) {
	ingredients := cleanList(cmd.Ingredients)
	if len(ingredients) == 0 {
		return nil, errors.NewValidationError("at least one ingredient is required")
	}
	cuisine := strings.TrimSpace(cmd.PreferredCuisine)

	var (
		matches []outbound.RecipeMatch
		ideas   []outbound.RecipeIdea
	)

	g, gctx := errgroup.WithContext(ctx)
	if cmd.UseCatalog && s.opts.CatalogMatches > 0 {
		g.Go(func() error {
			matches = s.catalog.FindRecipesByIngredients(gctx, ingredients)
			return nil
		})
	}
	g.Go(func() error {
		var err error
		ideas, err = s.model.EnhancedRecipes(gctx, outbound.EnhancedPrompt{
			Ingredients:         ingredients,
			PreferredCuisine:    cuisine,
			DietaryRestrictions: cleanList(cmd.DietaryRestrictions),
			Count:               s.opts.Count,
		})
		if err != nil {
			s.logger.Warn("Enhanced recipe generation failed, using catalog results only", zap.Error(err))
			ideas = nil
		}
		return nil
	})
	_ = g.Wait()

	var (
		recipes []recipe.Recipe
		prompts []string
	)

	if len(matches) > s.opts.CatalogMatches {
		matches = matches[:s.opts.CatalogMatches]
	}
	for _, m := range matches {
		r, err := fromCatalog(m, cuisine)
		if err != nil {
			continue
		}
		recipes = append(recipes, r)
		prompts = append(prompts, imagePrompt(r.Name))
	}

	if len(ideas) > s.opts.Count {
		ideas = ideas[:s.opts.Count]
	}
	for _, idea := range ideas {
		r, err := recipe.New(draftFromIdea(idea))
		if err != nil {
			s.logger.Debug("Skipping unnamed recipe from model")
			continue
		}
		r.SourceInfo = &recipe.SourceInfo{
			FromCatalog:         false,
			Confidence:          aiConfidence,
			MatchingIngredients: len(r.Ingredients),
		}
		recipes = append(recipes, r)
		prompts = append(prompts, imagePrompt(r.Name))
	}

	if len(recipes) > s.opts.MaxEnhanced {
		recipes = recipes[:s.opts.MaxEnhanced]
		prompts = prompts[:s.opts.MaxEnhanced]
	}

	s.logger.Info("Enhanced recipes generated",
		zap.Int("catalog", len(matches)),
		zap.Int("ai", len(ideas)),
		zap.Int("returned", len(recipes)))

	return s.attachImages(ctx, recipes, prompts), nil
}

func (s *RecipeService) fromIdeas(ctx context.Context, ideas []outbound.RecipeIdea) []recipe.Recipe {
	recipes := make([]recipe.Recipe, 0, len(ideas))
	prompts := make([]string, 0, len(ideas))

	for _, idea := range ideas {
		r, err := recipe.New(draftFromIdea(idea))
		if err != nil {
			s.logger.Debug("Skipping unnamed recipe from model")
			continue
		}
		prompt := strings.TrimSpace(idea.ImagePrompt)
		if prompt == "" {
			prompt = imagePrompt(r.Name)
		}
		recipes = append(recipes, r)
		prompts = append(prompts, prompt)
	}

	return s.attachImages(ctx, recipes, prompts)
}

// attachImages generates every recipe image concurrently. A failed image
// never affects its siblings; that recipe gets the placeholder instead.
func (s *RecipeService) attachImages(ctx context.Context, recipes []recipe.Recipe, prompts []string) []recipe.Recipe {
	out := make([]recipe.Recipe, len(recipes))

	var g errgroup.Group
	g.SetLimit(s.opts.ImageConcurrency)
	for i := range recipes {
		g.Go(func() error {
			out[i] = recipes[i].WithImage(s.image(ctx, recipes[i], prompts[i]))
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *RecipeService) image(ctx context.Context, r recipe.Recipe, prompt string) (url string) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("Image generation panicked", zap.String("recipe", r.Name), zap.Any("panic", p))
			s.metrics.RecipeImage("placeholder")
			url = ""
		}
	}()

	img, err := s.model.GenerateImage(ctx, prompt)
	if err != nil {
		s.logger.Warn("Image generation failed, using placeholder", zap.String("recipe", r.Name), zap.Error(err))
		s.metrics.RecipeImage("placeholder")
		return ""
	}

	url, err = s.images.Store(ctx, r.ID, img)
	if err != nil {
		s.logger.Warn("Image storage failed, using placeholder", zap.String("recipe", r.Name), zap.Error(err))
		s.metrics.RecipeImage("placeholder")
		return ""
	}

	s.metrics.RecipeImage("generated")
	return url
}

func draftFromIdea(idea outbound.RecipeIdea) recipe.Draft {
	d := recipe.Draft{
		Name:                  idea.Name,
		Ingredients:           idea.Ingredients,
		Instructions:          idea.Instructions,
		EstimatedCookingTime:  idea.EstimatedCookingTime,
		Cuisine:               idea.Cuisine,
		NutritionalHighlights: idea.NutritionalHighlights,
	}
	if c, ok := recipe.ParseDietaryCategory(idea.DietaryCategory); ok {
		d.DietaryCategory = c
	}
	if diff, ok := recipe.ParseDifficulty(idea.Difficulty); ok {
		d.Difficulty = diff
	}
	return d
}

func fromCatalog(m outbound.RecipeMatch, cuisine string) (recipe.Recipe, error) {
	if cuisine == "" {
		cuisine = "International"
	}
	name := strings.TrimSpace(m.Product.Name)

	r, err := recipe.New(recipe.Draft{
		Name:                  name,
		Ingredients:           m.MatchingIngredients,
		Instructions:          []string{fmt.Sprintf("Based on %s - cooking instructions to be generated.", name)},
		EstimatedCookingTime:  "30-45 minutes",
		DietaryCategory:       recipe.DietaryVegetarian,
		Difficulty:            recipe.DifficultyMedium,
		Cuisine:               cuisine,
		NutritionalHighlights: []string{"Real food data", "Verified ingredients"},
		SourceInfo: &recipe.SourceInfo{
			FromCatalog:         true,
			Confidence:          m.Confidence,
			MatchingIngredients: len(m.MatchingIngredients),
		},
	})
	return r, err
}

func imagePrompt(name string) string {
	return fmt.Sprintf("A photorealistic, appetizing image of %s, beautifully plated and ready to serve. Professional food photography style.", name)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
