package docai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

type stubReader struct {
	raw   entity.RawOCR
	err   error
	calls int
}

func (s *stubReader) Read(context.Context, entity.OCRRequest) (entity.RawOCR, error) {
	s.calls++
	return s.raw, s.err
}

func TestFallback(t *testing.T) {
	errPrimary := errors.New("primary down")
	errSecondary := errors.New("secondary down")
	tests := []struct {
		name          string
		primary       *stubReader
		secondary     *stubReader
		wantTransport string
		wantErrs      []error
		secondaryUsed int
	}{
		{
			name:          "primary ok",
			primary:       &stubReader{raw: entity.RawOCR{Transport: entity.TransportDirect}},
			secondary:     &stubReader{},
			wantTransport: entity.TransportDirect,
		},
		{
			name:          "secondary after failure",
			primary:       &stubReader{err: errPrimary},
			secondary:     &stubReader{raw: entity.RawOCR{Transport: entity.TransportClientLibrary}},
			wantTransport: entity.TransportClientLibrary,
			secondaryUsed: 1,
		},
		{
			name:          "both fail",
			primary:       &stubReader{err: errPrimary},
			secondary:     &stubReader{err: errSecondary},
			wantErrs:      []error{errPrimary, errSecondary},
			secondaryUsed: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Fallback{Primary: tt.primary, Secondary: tt.secondary, Logger: discardLogger()}
			raw, err := f.Read(context.Background(), entity.OCRRequest{Filename: "a.pdf"})
			assert.Equal(t, 1, tt.primary.calls)
			assert.Equal(t, tt.secondaryUsed, tt.secondary.calls)
			if len(tt.wantErrs) > 0 {
				require.Error(t, err)
				for _, want := range tt.wantErrs {
					assert.ErrorIs(t, err, want)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTransport, raw.Transport)
		})
	}
}

func TestFallbackStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	primary := &stubReader{err: context.Canceled}
	secondary := &stubReader{}
	f := &Fallback{Primary: primary, Secondary: secondary, Logger: discardLogger()}
	_, err := f.Read(ctx, entity.OCRRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, secondary.calls)
}

func TestNewDirectOnly(t *testing.T) {
	r, err := New(context.Background(), common.OCRConfig{DirectURL: "http://localhost:1"}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &DirectClient{}, r.DocumentReader)
	assert.NoError(t, r.Close())

	_, err = New(context.Background(), common.OCRConfig{}, discardLogger())
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}
