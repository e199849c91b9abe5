package common

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("content", "JVBERi0xLjQ=", Required, Base64).
		Field("data_url", "data:application/pdf;base64,JVBERi0xLjQ=", Base64).
		Field("filename", "cert.pdf", Required, MaxLength(10))
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())

	v = NewValidator().
		Field("content", "", Required).
		Field("payload", "%%%", Base64).
		Field("filename", strings.Repeat("a", 11), MaxLength(10)).
		Field("id", "nope", UUID)
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 4)
	assert.ErrorIs(t, v.Error(), ErrValidation)
	assert.Contains(t, v.ErrorMessage(), "filename")
}

func TestAppError(t *testing.T) {
	err := NewAppError(CodeOCRFailed, "document reader failed", ErrTransport)
	assert.Equal(t, "OCR_FAILED: document reader failed: ocr transport failed", err.Error())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, CodeOCRFailed, CodeOf(WrapError(err, "run")))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.NoError(t, WrapError(nil, "noop"))
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{NewAppError(CodeInvalidRequest, "bad", ErrValidation), codes.InvalidArgument},
		{ErrNotFound, codes.NotFound},
		{NewAppError(CodeOCRFailed, "down", ErrTransport), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		st, ok := status.FromError(ToStatus(tt.err))
		require.True(t, ok)
		assert.Equal(t, tt.want, st.Code(), tt.err.Error())
	}
	assert.NoError(t, ToStatus(nil))
}

func TestContextValues(t *testing.T) {
	ctx := WithJobID(WithRequestID(context.Background(), "r1"), "j1")
	assert.Equal(t, "r1", RequestIDFromContext(ctx))
	assert.Equal(t, "j1", JobIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))

	c, cancel := WithTimeout(ctx, 0)
	defer cancel()
	_, has := c.Deadline()
	assert.False(t, has)
}
