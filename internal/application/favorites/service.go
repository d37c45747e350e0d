// Package favorites manages the recipes each visitor has starred.
package favorites

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/errors"
)

// Service implements inbound.FavoritesService
type Service struct {
	repo   outbound.FavoriteRepository
	logger *zap.Logger
}

var _ inbound.FavoritesService = (*Service)(nil)

// NewService creates a new favorites service
func NewService(repo outbound.FavoriteRepository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.Named("favorites-service"),
	}
}

// List returns the visitor's favorites, oldest first.
func (s *Service) List(ctx context.Context, owner string) ([]recipe.Recipe, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	recipes, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, errors.NewDatabaseError("list favorites", err)
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	return recipes, nil
}

// Toggle stars r when it is not a favorite yet and unstars it otherwise.
// Recipes are matched by ID, so toggling twice restores the original set.
func (s *Service) Toggle(ctx context.Context, owner string, r recipe.Recipe) (bool, error) {
	if err := requireOwner(owner); err != nil {
		return false, err
	}
	if strings.TrimSpace(r.Name) == "" {
		return false, errors.NewValidationError("recipe name is required")
	}
	if r.ID == "" {
		r.ID = recipe.StableID(r.Name, r.Ingredients, r.Instructions)
	}

	exists, err := s.repo.Exists(ctx, owner, r.ID)
	if err != nil {
		return false, errors.NewDatabaseError("check favorite", err)
	}

	if exists {
		if err := s.repo.Remove(ctx, owner, r.ID); err != nil && !stderrors.Is(err, recipe.ErrRecipeNotFound) {
			return false, errors.NewDatabaseError("remove favorite", err)
		}
		s.logger.Info("Favorite removed", zap.String("owner", owner), zap.String("recipe_id", r.ID))
		return false, nil
	}

	if err := s.repo.Add(ctx, owner, r); err != nil {
		return false, errors.NewDatabaseError("add favorite", err)
	}
	s.logger.Info("Favorite added", zap.String("owner", owner), zap.String("recipe_id", r.ID), zap.String("recipe", r.Name))
	return true, nil
}

// Remove unstars a recipe by ID.
func (s *Service) Remove(ctx context.Context, owner, recipeID string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}

	err := s.repo.Remove(ctx, owner, recipeID)
	if stderrors.Is(err, recipe.ErrRecipeNotFound) {
		return errors.NewNotFoundError("Favorite")
	}
	if err != nil {
		return errors.NewDatabaseError("remove favorite", err)
	}
	return nil
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return errors.NewBadRequestError("visitor session is required")
	}
	return nil
}
