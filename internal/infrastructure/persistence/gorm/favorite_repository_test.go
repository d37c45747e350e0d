package gorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harvestchef/harvest/internal/domain/recipe"
)

type FavoriteRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo *FavoriteRepository
	ctx  context.Context
}

func (s *FavoriteRepositoryTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(&FavoriteModel{}))

	s.db = db
	s.repo = NewFavoriteRepository(db)
	s.ctx = context.Background()
}

func (s *FavoriteRepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func (s *FavoriteRepositoryTestSuite) recipe(name string) recipe.Recipe {
	r, err := recipe.New(recipe.Draft{
		Name:                  name,
		Ingredients:           []string{"2 tomatoes", "1 onion"},
		Instructions:          []string{"Chop.", "Simmer."},
		EstimatedCookingTime:  "25 minutes",
		DietaryCategory:       recipe.DietaryVegetarian,
		Difficulty:            recipe.DifficultyEasy,
		Cuisine:               "Italian",
		NutritionalHighlights: []string{"Rich in vitamin C"},
	})
	s.Require().NoError(err)
	return r.WithImage("https://images.example/" + name + ".png")
}

func (s *FavoriteRepositoryTestSuite) TestAddAndList() {
	first := s.recipe("Tomato Soup")
	second := s.recipe("Onion Tart")
	second.SourceInfo = &recipe.SourceInfo{FromCatalog: true, Confidence: 0.5, MatchingIngredients: 1}

	s.Require().NoError(s.repo.Add(s.ctx, "visitor-1", first))
	s.Require().NoError(s.repo.Add(s.ctx, "visitor-1", second))
	s.Require().NoError(s.repo.Add(s.ctx, "visitor-2", first))

	got, err := s.repo.List(s.ctx, "visitor-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)

	s.Equal(first, got[0])
	s.Equal(second.ID, got[1].ID)
	s.Require().NotNil(got[1].SourceInfo)
	s.True(got[1].SourceInfo.FromCatalog)
	s.Equal(0.5, got[1].SourceInfo.Confidence)
	s.Equal(1, got[1].SourceInfo.MatchingIngredients)
}

func (s *FavoriteRepositoryTestSuite) TestAddTwiceIsNoop() {
	r := s.recipe("Tomato Soup")

	s.Require().NoError(s.repo.Add(s.ctx, "visitor-1", r))
	s.Require().NoError(s.repo.Add(s.ctx, "visitor-1", r))

	got, err := s.repo.List(s.ctx, "visitor-1")
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *FavoriteRepositoryTestSuite) TestAddWithoutID() {
	err := s.repo.Add(s.ctx, "visitor-1", recipe.Recipe{Name: "nameless"})
	s.ErrorIs(err, recipe.ErrRecipeNotFound)
}

func (s *FavoriteRepositoryTestSuite) TestRemoveAndExists() {
	r := s.recipe("Tomato Soup")
	s.Require().NoError(s.repo.Add(s.ctx, "visitor-1", r))

	ok, err := s.repo.Exists(s.ctx, "visitor-1", r.ID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.Exists(s.ctx, "visitor-2", r.ID)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.repo.Remove(s.ctx, "visitor-1", r.ID))
	s.ErrorIs(s.repo.Remove(s.ctx, "visitor-1", r.ID), recipe.ErrRecipeNotFound)

	// re-adding after removal works against the unique index
	s.Require().NoError(s.repo.Add(s.ctx, "visitor-1", r))
	ok, err = s.repo.Exists(s.ctx, "visitor-1", r.ID)
	s.Require().NoError(err)
	s.True(ok)
}

func TestFavoriteRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(FavoriteRepositoryTestSuite))
}

func TestMappers_EmptySlicesRoundTrip(t *testing.T) {
	model := FavoriteToModel("visitor", recipe.Recipe{ID: "id-1", Name: "Plain"})

	value, err := model.Ingredients.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	restored := ModelToFavorite(model)
	assert.Equal(t, []string{}, restored.Ingredients)
	assert.Equal(t, []string{}, restored.Instructions)
	assert.Nil(t, restored.NutritionalHighlights)
	assert.Nil(t, restored.SourceInfo)
}
