package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harvestchef/harvest/internal/domain/recipe"
	gormrepo "github.com/harvestchef/harvest/internal/infrastructure/persistence/gorm"
	"github.com/harvestchef/harvest/internal/ports/outbound/mocks"
	apperrors "github.com/harvestchef/harvest/pkg/errors"
)

func newSQLiteService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&gormrepo.FavoriteModel{}))

	return NewService(gormrepo.NewFavoriteRepository(db), zaptest.NewLogger(t))
}

func pancakes(t *testing.T) recipe.Recipe {
	r, err := recipe.New(recipe.Draft{
		Name:         "Pancakes",
		Ingredients:  []string{"flour", "milk", "egg"},
		Instructions: []string{"Whisk.", "Fry."},
	})
	require.NoError(t, err)
	return r
}

func TestToggle_TwiceRestoresMembership(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()
	r := pancakes(t)

	before, err := svc.List(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, before)

	on, err := svc.Toggle(ctx, "v1", r)
	require.NoError(t, err)
	assert.True(t, on)

	list, err := svc.List(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)

	on, err = svc.Toggle(ctx, "v1", r)
	require.NoError(t, err)
	assert.False(t, on)

	after, err := svc.List(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestToggle_SameNameDifferentRecipe(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	a := pancakes(t)
	b, err := recipe.New(recipe.Draft{Name: "Pancakes", Ingredients: []string{"buckwheat"}, Instructions: []string{"Fry."}})
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	_, err = svc.Toggle(ctx, "v1", a)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "v1", b)
	require.NoError(t, err)

	list, err := svc.List(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestToggle_BackfillsMissingID(t *testing.T) {
	svc := newSQLiteService(t)
	r := pancakes(t)
	id := r.ID
	r.ID = ""

	_, err := svc.Toggle(context.Background(), "v1", r)
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestRemove(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()
	r := pancakes(t)

	err := svc.Remove(ctx, "v1", r.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = svc.Toggle(ctx, "v1", r)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, "v1", r.ID))
}

func TestValidation(t *testing.T) {
	svc := NewService(&mocks.FavoriteRepository{}, zaptest.NewLogger(t))

	_, err := svc.List(context.Background(), "")
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))

	_, err = svc.Toggle(context.Background(), "v1", recipe.Recipe{})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))
}

func TestRepositoryFailure(t *testing.T) {
	repo := &mocks.FavoriteRepository{}
	svc := NewService(repo, zaptest.NewLogger(t))
	repo.On("Exists", mock.Anything, "v1", mock.Anything).Return(false, errors.New("locked"))

	_, err := svc.Toggle(context.Background(), "v1", pancakes(t))
	assert.True(t, apperrors.Is(err, apperrors.CodeDatabaseError))
}
