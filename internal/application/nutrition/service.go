// Package nutrition reconciles catalog nutrition data with model estimates.
package nutrition

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harvestchef/harvest/internal/domain/nutrition"
	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/errors"
)

// lookupConcurrency bounds parallel catalog lookups for one recipe.
const lookupConcurrency = 8

// Service implements inbound.NutritionService
type Service struct {
	catalog       outbound.FoodCatalog
	model         outbound.GenerativeModel
	portionFactor float64
	logger        *zap.Logger
	metrics       *monitoring.MetricsCollector
}

var _ inbound.NutritionService = (*Service)(nil)

// NewService creates a new nutrition service. A non-positive portionFactor
// falls back to nutrition.DefaultPortionFactor.
func NewService(
	catalog outbound.FoodCatalog,
	model outbound.GenerativeModel,
	portionFactor float64,
	logger *zap.Logger,
	metrics *monitoring.MetricsCollector,
) *Service {
	if portionFactor <= 0 || portionFactor > 1 {
		portionFactor = nutrition.DefaultPortionFactor
	}
	return &Service{
		catalog:       catalog,
		model:         model,
		portionFactor: portionFactor,
		logger:        logger.Named("nutrition-service"),
		metrics:       metrics,
	}
}

// Reconcile looks every ingredient up in the food catalog and asks the model
// to estimate the rest. When the catalog knows none of them the whole recipe
// is analysed by the model instead.
func (s *Service) Reconcile(ctx context.Context, cmd inbound.ReconcileCommand) (*nutrition.Analysis, error) {
	name := strings.TrimSpace(cmd.RecipeName)
	ingredients := cleanList(cmd.Ingredients)
	if name == "" {
		return nil, errors.NewValidationError("recipe name is required")
	}
	if len(ingredients) == 0 {
		return nil, errors.NewValidationError("at least one ingredient is required")
	}

	lookups := s.lookup(ctx, ingredients)
	missing := nutrition.Missing(lookups)

	if len(missing) == len(lookups) {
		s.logger.Info("No catalog data for any ingredient, using AI analysis",
			zap.String("recipe", name))
		analysis, err := s.analyze(ctx, name, ingredients)
		if err != nil {
			return nil, err
		}
		s.metrics.NutritionAnalysis("ai_only")
		return analysis, nil
	}

	var (
		estimate    *nutrition.Record
		unestimated []string
	)
	if len(missing) > 0 {
		rec, err := s.model.EstimateNutrition(ctx, name, missing)
		if err != nil {
			s.logger.Warn("Nutrition estimate failed, leaving ingredients unestimated",
				zap.String("recipe", name),
				zap.Strings("ingredients", missing),
				zap.Error(err))
			unestimated = missing
		} else {
			estimate = &rec
		}
	}

	analysis := nutrition.Hybrid(lookups, estimate, unestimated, cmd.Servings, s.portionFactor)
	s.metrics.NutritionAnalysis("hybrid")

	s.logger.Info("Nutrition reconciled",
		zap.String("recipe", name),
		zap.Int("catalog", analysis.DataSourcesCount),
		zap.Int("estimated", len(missing)-len(unestimated)),
		zap.Int("unestimated", len(unestimated)))

	return &analysis, nil
}

// Analyze produces a whole-recipe analysis from the model alone.
func (s *Service) Analyze(ctx context.Context, recipeName string, ingredients []string) (*nutrition.Analysis, error) {
	name := strings.TrimSpace(recipeName)
	ingredients = cleanList(ingredients)
	if name == "" {
		return nil, errors.NewValidationError("recipe name is required")
	}
	if len(ingredients) == 0 {
		return nil, errors.NewValidationError("at least one ingredient is required")
	}

	analysis, err := s.analyze(ctx, name, ingredients)
	if err != nil {
		return nil, err
	}
	s.metrics.NutritionAnalysis("ai")
	return analysis, nil
}

func (s *Service) analyze(ctx context.Context, name string, ingredients []string) (*nutrition.Analysis, error) {
	est, err := s.model.AnalyzeRecipe(ctx, name, ingredients)
	if err != nil {
		s.logger.Error("Nutrition analysis failed", zap.String("recipe", name), zap.Error(err))
		return nil, errors.NewExternalServiceError("generative model", err)
	}
	if !est.HasCalories() {
		s.logger.Error("Nutrition analysis came back empty", zap.String("recipe", name))
		return nil, errors.NewExternalServiceError("generative model", stderrors.New("empty nutrition analysis"))
	}
	analysis := nutrition.FromEstimate(est, ingredients)
	return &analysis, nil
}

// lookup fetches catalog records concurrently, keeping input order.
func (s *Service) lookup(ctx context.Context, ingredients []string) []nutrition.Lookup {
	lookups := make([]nutrition.Lookup, len(ingredients))

	var g errgroup.Group
	g.SetLimit(lookupConcurrency)
	for i, name := range ingredients {
		g.Go(func() error {
			lookups[i] = nutrition.Lookup{Ingredient: name, Record: s.catalog.GetNutritionalInfo(ctx, name)}
			return nil
		})
	}
	_ = g.Wait()

	return lookups
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
