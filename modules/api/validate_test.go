package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CompilesEmbeddedSchemas(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	for _, name := range []string{schemaTaskCreate, schemaTaskUpdate, schemaAuthRegister, schemaAuthLogin} {
		assert.Contains(t, v.schemas, name)
	}
}

func TestValidator_Decode(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	t.Run("valid body decodes and drops unknown keys", func(t *testing.T) {
		var body CreateTaskBody
		fieldErrs, err := v.Decode(schemaTaskCreate, []byte(`{"title":"A","dueDate":"2024-01-01","_id":"x"}`), &body)
		require.NoError(t, err)
		assert.Empty(t, fieldErrs)
		assert.Equal(t, "A", body.Title)
		assert.Nil(t, body.Description)
	})

	t.Run("empty body is an empty object", func(t *testing.T) {
		var patch UpdateTaskBody
		fieldErrs, err := v.Decode(schemaTaskUpdate, nil, &patch)
		require.NoError(t, err)
		assert.Empty(t, fieldErrs)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("every missing required field is reported", func(t *testing.T) {
		var body CreateTaskBody
		fieldErrs, err := v.Decode(schemaTaskCreate, []byte(`{}`), &body)
		require.NoError(t, err)
		assert.Equal(t, []FieldError{
			{Field: "dueDate", Message: "Due date is required"},
			{Field: "title", Message: "Task title is required"},
		}, fieldErrs)
	})

	t.Run("wrong type keeps the generic message", func(t *testing.T) {
		var body CreateTaskBody
		fieldErrs, err := v.Decode(schemaTaskCreate, []byte(`{"title":5,"dueDate":"2024-01-01"}`), &body)
		require.NoError(t, err)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "title", fieldErrs[0].Field)
		assert.NotEmpty(t, fieldErrs[0].Message)
	})

	t.Run("null description is rejected", func(t *testing.T) {
		var patch UpdateTaskBody
		fieldErrs, err := v.Decode(schemaTaskUpdate, []byte(`{"description":null}`), &patch)
		require.NoError(t, err)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "description", fieldErrs[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		var body CreateTaskBody
		_, err := v.Decode(schemaTaskCreate, []byte(`{"title":`), &body)
		assert.ErrorIs(t, err, errInvalidBody)
	})

	t.Run("unknown schema", func(t *testing.T) {
		_, err := v.Decode("nope", []byte(`{}`), &struct{}{})
		assert.Error(t, err)
	})
}
