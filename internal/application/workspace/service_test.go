package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/infrastructure/persistence/memory"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/internal/ports/outbound/mocks"
	apperrors "github.com/harvestchef/harvest/pkg/errors"
)

type mockIdentifier struct {
	mock.Mock
}

func (m *mockIdentifier) Identify(ctx context.Context, photo outbound.Image) ([]ingredient.Ingredient, error) {
	args := m.Called(ctx, photo)
	items, _ := args.Get(0).([]ingredient.Ingredient)
	return items, args.Error(1)
}

type mockRecipes struct {
	mock.Mock
}

func (m *mockRecipes) SuggestByIngredients(ctx context.Context, ingredients []string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, ingredients)
	recipes, _ := args.Get(0).([]recipe.Recipe)
	return recipes, args.Error(1)
}

func (m *mockRecipes) FindByName(ctx context.Context, query string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, query)
	recipes, _ := args.Get(0).([]recipe.Recipe)
	return recipes, args.Error(1)
}

func (m *mockRecipes) Enhanced(ctx context.Context, cmd inbound.EnhancedCommand) ([]recipe.Recipe, error) {
	args := m.Called(ctx, cmd)
	recipes, _ := args.Get(0).([]recipe.Recipe)
	return recipes, args.Error(1)
}

const owner = "visitor-1"

var photo = outbound.Image{MIMEType: "image/jpeg", Data: []byte{1, 2, 3}}

func mustRecipe(name string) recipe.Recipe {
	r, err := recipe.New(recipe.Draft{Name: name, Ingredients: []string{"x"}, Instructions: []string{"y"}})
	if err != nil {
		panic(err)
	}
	return r
}

type ServiceTestSuite struct {
	suite.Suite
	store      *memory.CacheRepository
	identifier *mockIdentifier
	recipes    *mockRecipes
	service    *Service
	ctx        context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = memory.NewCacheRepository()
	s.identifier = &mockIdentifier{}
	s.recipes = &mockRecipes{}
	s.service = NewService(s.store, s.identifier, s.recipes, 0, zaptest.NewLogger(s.T()), nil)
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) TearDownTest() {
	_ = s.store.Close()
}

func (s *ServiceTestSuite) TestGet_EmptyWorkspace() {
	ws, err := s.service.Get(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(owner, ws.Owner)
	s.Empty(ws.Ingredients)
	s.Empty(ws.Recipes)
}

func (s *ServiceTestSuite) TestIdentify_ReplacesIngredientsAsPending() {
	s.identifier.On("Identify", mock.Anything, photo).Return([]ingredient.Ingredient{
		{ID: "1", Name: "Tomato", Confidence: 0.9},
		{ID: "2", Name: "Onion", Confidence: 0.8},
	}, nil)

	_, err := s.service.AddIngredient(s.ctx, owner, "Salt")
	s.Require().NoError(err)

	ws, err := s.service.Identify(s.ctx, owner, photo)
	s.Require().NoError(err)
	s.Require().Len(ws.Ingredients, 2)
	s.Equal(ingredient.StatusPending, ws.Ingredients[0].Status)

	reloaded, err := s.service.Get(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(ws.Ingredients, reloaded.Ingredients)
}

func (s *ServiceTestSuite) TestIdentify_FailureKeepsPreviousList() {
	s.identifier.On("Identify", mock.Anything, photo).
		Return(nil, apperrors.NewExternalServiceError("generative model", errors.New("boom")))

	_, err := s.service.AddIngredient(s.ctx, owner, "Salt")
	s.Require().NoError(err)

	_, err = s.service.Identify(s.ctx, owner, photo)
	s.True(apperrors.Is(err, apperrors.CodeExternalServiceError))

	ws, err := s.service.Get(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(ws.Ingredients, 1)
	s.Equal("Salt", ws.Ingredients[0].Name)
}

func (s *ServiceTestSuite) TestEditIngredients() {
	ws, err := s.service.AddIngredient(s.ctx, owner, "Garlic")
	s.Require().NoError(err)
	s.Require().Len(ws.Ingredients, 1)
	garlic := ws.Ingredients[0]
	s.Equal(1.0, garlic.Confidence)
	s.Equal(ingredient.StatusAccepted, garlic.Status)

	ws, err = s.service.AddIngredient(s.ctx, owner, "garlic")
	s.Require().NoError(err)
	s.Len(ws.Ingredients, 1, "duplicate names are ignored")

	rejected := ingredient.StatusRejected
	ws, err = s.service.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{Owner: owner, ID: garlic.ID, Status: &rejected})
	s.Require().NoError(err)
	s.Equal(ingredient.StatusRejected, ws.Ingredients[0].Status)

	name := "Black Garlic"
	ws, err = s.service.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{Owner: owner, ID: garlic.ID, Name: &name})
	s.Require().NoError(err)
	s.Equal("Black Garlic", ws.Ingredients[0].Name)
	s.Equal(ingredient.StatusAccepted, ws.Ingredients[0].Status)

	ws, err = s.service.RemoveIngredient(s.ctx, owner, garlic.ID)
	s.Require().NoError(err)
	s.Empty(ws.Ingredients)
}

func (s *ServiceTestSuite) TestEditIngredients_Errors() {
	_, err := s.service.RemoveIngredient(s.ctx, owner, "missing")
	s.True(apperrors.Is(err, apperrors.CodeIngredientNotFound))

	_, err = s.service.AddIngredient(s.ctx, owner, "  ")
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))

	ws, err := s.service.AddIngredient(s.ctx, owner, "Egg")
	s.Require().NoError(err)
	_, err = s.service.AddIngredient(s.ctx, owner, "Milk")
	s.Require().NoError(err)

	dup := "milk"
	_, err = s.service.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{Owner: owner, ID: ws.Ingredients[0].ID, Name: &dup})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))

	bogus := ingredient.Status("maybe")
	_, err = s.service.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{Owner: owner, ID: ws.Ingredients[0].ID, Status: &bogus})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))

	_, err = s.service.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{Owner: owner, ID: ws.Ingredients[0].ID})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))

	_, err = s.service.AddIngredient(s.ctx, "", "Egg")
	s.True(apperrors.Is(err, apperrors.CodeBadRequest))
}

func (s *ServiceTestSuite) TestSuggestRecipes_UsesAcceptedIngredients() {
	_, err := s.service.AddIngredient(s.ctx, owner, "Rice")
	s.Require().NoError(err)
	ws, err := s.service.AddIngredient(s.ctx, owner, "Beans")
	s.Require().NoError(err)

	rejected := ingredient.StatusRejected
	_, err = s.service.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{Owner: owner, ID: ws.Ingredients[1].ID, Status: &rejected})
	s.Require().NoError(err)

	s.recipes.On("SuggestByIngredients", mock.Anything, []string{"Rice"}).
		Return([]recipe.Recipe{mustRecipe("Fried Rice")}, nil)

	ws, err = s.service.SuggestRecipes(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(ws.Recipes, 1)
	s.Equal("Fried Rice", ws.Recipes[0].Name)
	s.Empty(ws.Query)
}

func (s *ServiceTestSuite) TestSuggestRecipes_NoAcceptedIngredients() {
	_, err := s.service.SuggestRecipes(s.ctx, owner)
	s.True(apperrors.Is(err, apperrors.CodeNoAcceptedIngredients))
	s.recipes.AssertNotCalled(s.T(), "SuggestByIngredients", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestSearchRecipes() {
	s.recipes.On("FindByName", mock.Anything, "lasagna").
		Return([]recipe.Recipe{mustRecipe("Lasagna"), mustRecipe("Veggie Lasagna")}, nil)

	ws, err := s.service.SearchRecipes(s.ctx, owner, " lasagna ")
	s.Require().NoError(err)
	s.Len(ws.Recipes, 2)
	s.Equal("lasagna", ws.Query)

	_, err = s.service.SearchRecipes(s.ctx, owner, "")
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
}

func (s *ServiceTestSuite) TestSupersededSearchIsDiscarded() {
	s.recipes.On("FindByName", mock.Anything, "soup").
		Run(func(mock.Arguments) {
			ws, err := s.service.SearchRecipes(s.ctx, owner, "stew")
			s.Require().NoError(err)
			s.Equal("stew", ws.Query)
		}).
		Return([]recipe.Recipe{mustRecipe("Soup")}, nil)
	s.recipes.On("FindByName", mock.Anything, "stew").
		Return([]recipe.Recipe{mustRecipe("Stew")}, nil)

	_, err := s.service.SearchRecipes(s.ctx, owner, "soup")
	s.True(apperrors.Is(err, apperrors.CodeStaleRequest))

	ws, err := s.service.Get(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(ws.Recipes, 1)
	s.Equal("Stew", ws.Recipes[0].Name)
}

func (s *ServiceTestSuite) TestIdentificationInvalidatesPendingRecipes() {
	_, err := s.service.AddIngredient(s.ctx, owner, "Leek")
	s.Require().NoError(err)

	s.identifier.On("Identify", mock.Anything, photo).
		Return([]ingredient.Ingredient{{ID: "p", Name: "Potato", Confidence: 0.7}}, nil)
	s.recipes.On("SuggestByIngredients", mock.Anything, []string{"Leek"}).
		Run(func(mock.Arguments) {
			_, err := s.service.Identify(s.ctx, owner, photo)
			s.Require().NoError(err)
		}).
		Return([]recipe.Recipe{mustRecipe("Leek Soup")}, nil)

	_, err = s.service.SuggestRecipes(s.ctx, owner)
	s.True(apperrors.Is(err, apperrors.CodeStaleRequest))

	ws, err := s.service.Get(s.ctx, owner)
	s.Require().NoError(err)
	s.Empty(ws.Recipes)
	s.Equal("Potato", ws.Ingredients[0].Name)
}

func (s *ServiceTestSuite) TestStoreFailure() {
	store := &mocks.CacheRepository{}
	svc := NewService(store, s.identifier, s.recipes, 0, zaptest.NewLogger(s.T()), nil)
	store.On("Get", mock.Anything, "workspace:"+owner).Return(nil, outbound.ErrCacheMiss)
	store.On("Set", mock.Anything, "workspace:"+owner, mock.Anything, defaultTTL).Return(errors.New("redis down"))

	_, err := svc.AddIngredient(s.ctx, owner, "Egg")
	s.True(apperrors.Is(err, apperrors.CodeDatabaseError))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
