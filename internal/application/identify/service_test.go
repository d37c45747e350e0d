package identify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/internal/ports/outbound/mocks"
	apperrors "github.com/harvestchef/harvest/pkg/errors"
)

var jpeg = outbound.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}

func TestIdentify_DedupesAndBackfillsIDs(t *testing.T) {
	model := &mocks.GenerativeModel{}
	svc := NewService(model, zaptest.NewLogger(t))

	model.On("IdentifyIngredients", mock.Anything, jpeg).Return([]ingredient.Ingredient{
		{ID: "a", Name: "Tomato", Confidence: 0.9},
		{Name: "tomato ", Confidence: 0.4},
		{Name: "", Confidence: 0.7},
		{Name: "Basil", Confidence: 1.4},
	}, nil)

	got, err := svc.Identify(context.Background(), jpeg)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "Tomato", got[0].Name)
	assert.Equal(t, 0.9, got[0].Confidence)
	assert.Equal(t, "Basil", got[1].Name)
	assert.NotEmpty(t, got[1].ID)
	assert.Equal(t, 1.0, got[1].Confidence)
	model.AssertExpectations(t)
}

func TestIdentify_ModelFailure(t *testing.T) {
	model := &mocks.GenerativeModel{}
	svc := NewService(model, zaptest.NewLogger(t))
	model.On("IdentifyIngredients", mock.Anything, jpeg).Return(nil, errors.New("safety block"))

	_, err := svc.Identify(context.Background(), jpeg)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeExternalServiceError))
}

func TestIdentify_RejectsInvalidImages(t *testing.T) {
	model := &mocks.GenerativeModel{}
	svc := NewService(model, zaptest.NewLogger(t))

	tests := []struct {
		name  string
		photo outbound.Image
	}{
		{"empty", outbound.Image{MIMEType: "image/png"}},
		{"not an image", outbound.Image{MIMEType: "text/plain", Data: []byte("hi")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Identify(context.Background(), tt.photo)
			assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))
		})
	}
	model.AssertNotCalled(t, "IdentifyIngredients", mock.Anything, mock.Anything)
}

func TestPhotoFromDataURI(t *testing.T) {
	photo, err := PhotoFromDataURI("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.MIMEType)
	assert.Equal(t, []byte("hello"), photo.Data)

	for _, uri := range []string{
		"",
		"not a uri",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,",
	} {
		_, err := PhotoFromDataURI(uri)
		assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed), uri)
	}
}
