package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
)

type fakeReader struct {
	raw   entity.RawOCR
	err   error
	calls []entity.OCRRequest
}

func (f *fakeReader) Read(_ context.Context, req entity.OCRRequest) (entity.RawOCR, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return entity.RawOCR{}, f.err
	}
	return f.raw, nil
}

func newTestProcedure(reader DocumentReader) *Procedure {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProcedure(reader, rules.Default(), logger, WithClock(fixedClock))
}

func pdfRequest(filename string) entity.ExtractionRequest {
	return entity.ExtractionRequest{
		Content:  base64.StdEncoding.EncodeToString([]byte("%PDF-1.4\n1 0 obj\n")),
		Filename: filename,
	}
}

func TestRunRegistrationCertificate(t *testing.T) {
	reader := &fakeReader{raw: entity.RawOCR{
		KeyValues: map[string]string{
			"Name_o_fShip":   "X",
			"Flag_State":     "MALTA",
			"Length_overall": "45.2",
			"Certificate_No": "12345",
		},
		Confidence: 0.9,
		Transport:  entity.TransportDirect,
	}}
	res, err := newTestProcedure(reader).Run(context.Background(), pdfRequest("registration_certificate.pdf"))
	require.NoError(t, err)
	require.True(t, res.Success)

	require.Len(t, reader.calls, 1)
	assert.Equal(t, constants.DocTypeRegistration, reader.calls[0].DocumentType)
	assert.Equal(t, constants.MimePDF, reader.calls[0].MimeType)

	require.NotNil(t, res.Record)
	require.NotNil(t, res.Record.Name)
	assert.Equal(t, "X", *res.Record.Name)
	assert.Equal(t, "MALTA", *res.Record.FlagState)
	assert.Equal(t, 45.2, *res.Record.LengthOverall)
	assert.Equal(t, "12345", *res.Record.CertificateNumber)

	for _, f := range []string{"name", "flagState", "lengthOverall", "certificateNumber"} {
		assert.Contains(t, res.Population.Fields, f)
		assert.Less(t, res.Population.Confidence[f], 1.0, f)
	}
	assert.Equal(t, entity.StrategyAutoPopulate, res.Population.Strategy)
	assert.Equal(t, 4, res.FieldsExtracted)
	assert.Equal(t, 4, res.FieldsPopulated)
	assert.LessOrEqual(t, res.FieldsPopulated, res.FieldsValidated)
	assert.LessOrEqual(t, res.FieldsValidated, res.FieldsMapped)
	assert.Equal(t, 100.0, res.Accuracy)
	assert.NotEmpty(t, res.RequestID)

	var phases []string
	for _, e := range res.Log {
		phases = append(phases, e.Phase)
		assert.Equal(t, fixedClock(), e.At)
	}
	assert.Equal(t, []string{PhaseAnalyze, PhaseOCR, PhaseRecognize, PhaseMap, PhaseValidate, PhasePopulate}, phases)
}

func TestRunBuilderComposite(t *testing.T) {
	reader := &fakeReader{raw: entity.RawOCR{KeyValues: map[string]string{
		"Name_of_Ship":         "LADY M",
		"When_and_where_built": "2025 AZIMUT BENETTI SPA, VIAREGGIO (LUCCA), ITALY",
	}}}
	res, err := newTestProcedure(reader).Run(context.Background(), pdfRequest("registry.pdf"))
	require.NoError(t, err)
	require.NotNil(t, res.Record.Builder)
	assert.Equal(t, "AZIMUT BENETTI SPA", *res.Record.Builder)
	require.NotNil(t, res.Record.Year)
	assert.Equal(t, 2025, *res.Record.Year)
	assert.Equal(t, "VIAREGGIO (LUCCA), ITALY", *res.Record.BuildLocation)
	// one extracted composite fans out into several fields
	assert.Equal(t, 100.0, res.Accuracy)
}

func TestRunKeepsUnmappedVendorFields(t *testing.T) {
	reader := &fakeReader{raw: entity.RawOCR{KeyValues: map[string]string{
		"Name_of_Ship":        "LADY M",
		"Random_Vendor_Field": "foo",
	}}}
	res, err := newTestProcedure(reader).Run(context.Background(), pdfRequest("registration.pdf"))
	require.NoError(t, err)
	assert.Contains(t, res.Mapping.UnmappedFields, "Random_Vendor_Field")
	assert.Equal(t, "foo", res.Validation.Validated["random_vendor_field"])
	assert.Equal(t, "foo", res.Record.Extras["random_vendor_field"])
	assert.Contains(t, res.Population.Fields, "random_vendor_field")

	var warned bool
	for _, e := range res.Log {
		if e.Phase == PhaseMap && e.Level == slog.LevelWarn.String() {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunMoreInputNeverPopulatesLess(t *testing.T) {
	payloads := []map[string]string{
		{"Flag_State": "MALTA"},
		{"Flag_State": "MALTA", "Name_o_fShip": "X"},
		{"Flag_State": "MALTA", "Name_o_fShip": "X", "Length_overall": "45.2"},
		{"Flag_State": "MALTA", "Name_o_fShip": "X", "Length_overall": "45.2", "Beam": "8.5", "Extra_Note": "ok"},
	}
	last := -1
	for _, kv := range payloads {
		res, err := newTestProcedure(&fakeReader{raw: entity.RawOCR{KeyValues: kv}}).
			Run(context.Background(), pdfRequest("registration.pdf"))
		require.NoError(t, err)
		assert.LessOrEqual(t, res.FieldsPopulated, res.FieldsValidated)
		assert.LessOrEqual(t, res.FieldsValidated, res.FieldsMapped)
		assert.GreaterOrEqual(t, res.FieldsPopulated, last)
		last = res.FieldsPopulated
	}
}

func TestRunOCRFailure(t *testing.T) {
	reader := &fakeReader{err: errors.New("connection refused")}
	res, err := newTestProcedure(reader).Run(context.Background(), pdfRequest("registration.pdf"))
	require.Error(t, err)
	assert.Equal(t, common.CodeOCRFailed, common.CodeOf(err))
	assert.ErrorIs(t, err, common.ErrTransport)

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "connection refused")
	assert.NotNil(t, res.Analysis)
	assert.Nil(t, res.Record)
	require.Len(t, res.Log, 2)
	assert.Equal(t, PhaseAnalyze, res.Log[0].Phase)
	assert.Equal(t, PhaseOCR, res.Log[1].Phase)
	assert.Equal(t, slog.LevelError.String(), res.Log[1].Level)
}

func TestRunNoReader(t *testing.T) {
	res, err := newTestProcedure(nil).Run(context.Background(), pdfRequest("registration.pdf"))
	require.Error(t, err)
	assert.Equal(t, common.CodeOCRFailed, common.CodeOf(err))
	assert.False(t, res.Success)
}

func TestRunInvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  entity.ExtractionRequest
	}{
		{"missing content", entity.ExtractionRequest{Filename: "a.pdf"}},
		{"missing filename", entity.ExtractionRequest{Content: "JVBERi0xLjQ="}},
		{"bad base64", entity.ExtractionRequest{Content: "not base64!!", Filename: "a.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{}
			res, err := newTestProcedure(reader).Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, common.CodeInvalidRequest, common.CodeOf(err))
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.False(t, res.Success)
			assert.Empty(t, reader.calls)
		})
	}
}

func TestRunUsesContextRequestID(t *testing.T) {
	ctx := common.WithRequestID(context.Background(), "req-42")
	res, err := newTestProcedure(&fakeReader{}).Run(ctx, pdfRequest("registration.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "req-42", res.RequestID)
	assert.Equal(t, 0.0, res.Accuracy)
	assert.Equal(t, entity.StrategyManualReview, res.Population.Strategy)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, accuracy(3, 0))
	assert.Equal(t, 66.67, accuracy(2, 3))
	assert.Equal(t, 100.0, accuracy(5, 3))
}

func TestRunLogsCarryContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	reader := &fakeReader{raw: entity.RawOCR{KeyValues: map[string]string{
		"Name_o_fShip":   "X",
		"Flag_State":     "MALTA",
		"Length_overall": "45.2",
		"Certificate_No": "12345",
	}}}
	p := NewProcedure(reader, rules.Default(), logger, WithClock(fixedClock))

	ctx := common.WithJobID(common.WithRequestID(context.Background(), "req-7"), "job-42")
	res, err := p.Run(ctx, pdfRequest("registration_certificate.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "req-7", res.RequestID)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, "job-42", entry["job_id"], string(line))
		assert.Equal(t, "req-7", entry["request_id"], string(line))
	}

	buf.Reset()
	_, err = p.Run(context.Background(), pdfRequest("registration_certificate.pdf"))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "job_id")
}
