package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/ports/outbound"
)

// FavoriteRepository implements the favorite repository interface using GORM
type FavoriteRepository struct {
	db *gorm.DB
}

var _ outbound.FavoriteRepository = (*FavoriteRepository)(nil)

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// List returns the visitor's favorites, oldest first.
func (r *FavoriteRepository) List(ctx context.Context, owner string) ([]recipe.Recipe, error) {
	var models []FavoriteModel

	result := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at ASC, id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	recipes := make([]recipe.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, ModelToFavorite(&models[i]))
	}
	return recipes, nil
}

// Add stores a favorite. Adding the same recipe twice is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, owner string, rec recipe.Recipe) error {
	if rec.ID == "" {
		return recipe.ErrRecipeNotFound
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(FavoriteToModel(owner, rec)).Error
}

// Remove deletes a favorite by recipe ID.
func (r *FavoriteRepository) Remove(ctx context.Context, owner, recipeID string) error {
	result := r.db.WithContext(ctx).
		Where("owner = ? AND recipe_id = ?", owner, recipeID).
		Delete(&FavoriteModel{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return recipe.ErrRecipeNotFound
	}

	return nil
}

// Exists reports whether the visitor has starred the recipe.
func (r *FavoriteRepository) Exists(ctx context.Context, owner, recipeID string) (bool, error) {
	var model FavoriteModel

	err := r.db.WithContext(ctx).
		Select("id").
		Where("owner = ? AND recipe_id = ?", owner, recipeID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
