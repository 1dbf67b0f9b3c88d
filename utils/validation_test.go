package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	RequestID string  `validate:"required"`
	Priority  string  `validate:"omitempty,oneof=fast balanced quality"`
	MaxTokens int     `validate:"omitempty,gt=0"`
	TopP      float64 `validate:"omitempty,gte=0,lte=1"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(sampleRequest{
		RequestID: "req-1",
		Priority:  "balanced",
		MaxTokens: 256,
	})
	assert.NoError(t, err)
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(sampleRequest{Priority: "fast"})
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	fields := GetValidationFields(err)
	assert.Contains(t, fields, "RequestID")
	assert.Contains(t, fields["RequestID"], "required")
}

func TestValidateStructOneOf(t *testing.T) {
	err := ValidateStruct(sampleRequest{RequestID: "req-1", Priority: "turbo"})
	require.Error(t, err)

	fields := GetValidationFields(err)
	assert.Contains(t, fields["Priority"], "one of")
}

func TestValidateStructNumericBounds(t *testing.T) {
	err := ValidateStruct(sampleRequest{RequestID: "req-1", MaxTokens: -5})
	require.Error(t, err)
	assert.Contains(t, GetValidationFields(err)["MaxTokens"], "greater than")

	err = ValidateStruct(sampleRequest{RequestID: "req-1", TopP: 1.5})
	require.Error(t, err)
	assert.Contains(t, GetValidationFields(err), "TopP")
}

func TestIsValidationErrorOtherError(t *testing.T) {
	assert.False(t, IsValidationError(errors.New("boom")))
	assert.Nil(t, GetValidationFields(errors.New("boom")))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Message: "Validation failed"}
	assert.Equal(t, "Validation failed", err.Error())
}
