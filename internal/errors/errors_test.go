package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetailsMarshal(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "t-1").
		WithExtension("type", "overridden")

	raw, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, TypeNotFound, body["type"], "extensions never replace standard members")
	assert.Equal(t, "t-1", body["trace_id"])
	assert.NotContains(t, body, "detail")
}

func TestFromValidator(t *testing.T) {
	type form struct {
		Mode      string `validate:"required,oneof=archive flat"`
		Threshold int    `validate:"gte=0"`
	}

	err := validator.New().Struct(form{Mode: "zip", Threshold: -1})
	require.Error(t, err)

	apiErr := FromValidator(err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, CodeValidationFailed, apiErr.ErrorCode)

	details, ok := apiErr.Details.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, details.Errors, 2)
	assert.Equal(t, "Mode must be one of: archive flat", details.Errors[0].Message)
	assert.Equal(t, "Threshold must be greater than or equal to 0", details.Errors[1].Message)
}

func TestFromValidatorOtherError(t *testing.T) {
	apiErr := FromValidator(stderrors.New("bad form"))

	assert.Equal(t, CodeInvalidRequest, apiErr.ErrorCode)
	assert.Equal(t, "bad form", apiErr.Details)
}

func TestAppError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorageError("write export", cause).WithContext("run_id", "r1")

	assert.Equal(t, "[STORAGE] write export: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "r1", err.Context["run_id"])
	assert.True(t, IsType(err, ErrTypeStorage))
	assert.False(t, IsType(err, ErrTypeNotFound))
	assert.Equal(t, "[NOT_FOUND] run not found", NewNotFoundError("run").Error())
}
