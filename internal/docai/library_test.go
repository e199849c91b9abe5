package docai

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

func layout(text, full string, conf float32) *documentaipb.Document_Page_Layout {
	start := len([]rune(full[:strings.Index(full, text)]))
	return &documentaipb.Document_Page_Layout{
		Confidence: conf,
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: int64(start), EndIndex: int64(start + len([]rune(text)))},
			},
		},
	}
}

func sampleDocument() *documentaipb.Document {
	full := "Name of Ship: LADY M\nFlag: MALTA\nName of Ship: OTHER\n"
	return &documentaipb.Document{
		Text: full,
		Pages: []*documentaipb.Document_Page{{
			FormFields: []*documentaipb.Document_Page_FormField{
				{FieldName: layout("Name of Ship:", full, 0), FieldValue: layout("LADY M", full, 0.9)},
				{FieldName: layout("Flag:", full, 0), FieldValue: layout("MALTA", full, 0.7)},
				{FieldName: layout("Name of Ship:", full, 0), FieldValue: layout("OTHER", full, 0.1)},
			},
		}},
		Entities: []*documentaipb.Document_Entity{
			{Type: "imo_number", MentionText: "IMO 9876543"},
			{Type: "engine", Properties: []*documentaipb.Document_Entity{
				{Type: "make", MentionText: "MTU"},
				{Type: "power", NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{Text: "2000"}},
			}},
			{Type: "Flag", MentionText: "ignored"},
		},
	}
}

func TestDocumentToRaw(t *testing.T) {
	raw := documentToRaw(sampleDocument())
	assert.Equal(t, map[string]string{
		"Name of Ship": "LADY M",
		"Flag":         "MALTA",
		"imo_number":   "IMO 9876543",
		"engine/make":  "MTU",
		"engine/power": "2000",
	}, raw.KeyValues)
	assert.InDelta(t, 0.8, raw.Confidence, 1e-6)
	assert.Equal(t, entity.TransportClientLibrary, raw.Transport)
	assert.Contains(t, raw.Text, "LADY M")

	empty := documentToRaw(nil)
	assert.Empty(t, empty.KeyValues)
	assert.Equal(t, defaultConfidence, empty.Confidence)
}

func TestClientLibraryRead(t *testing.T) {
	dir := t.TempDir()
	var sent *documentaipb.ProcessRequest
	c := newClientLibrary(func(_ context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		sent = req
		return &documentaipb.ProcessResponse{Document: sampleDocument()}, nil
	}, "projects/p/locations/eu/processors/abc", 0, dir, discardLogger())

	raw, err := c.Read(context.Background(), entity.OCRRequest{
		Content:  base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		Filename: "registration.pdf",
		MimeType: constants.MimeUnknown,
	})
	require.NoError(t, err)
	assert.Equal(t, "LADY M", raw.KeyValues["Name of Ship"])

	require.NotNil(t, sent)
	assert.Equal(t, "projects/p/locations/eu/processors/abc", sent.GetName())
	assert.Equal(t, constants.MimePDF, sent.GetRawDocument().GetMimeType())
	assert.Equal(t, []byte("%PDF-1.4"), sent.GetRawDocument().GetContent())
	assert.True(t, sent.GetSkipHumanReview())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "registration-")
	assert.NoError(t, c.Close())
}

func TestClientLibraryErrors(t *testing.T) {
	c := newClientLibrary(func(context.Context, *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		return nil, errors.New("permission denied")
	}, "projects/p/locations/eu/processors/abc", 0, "", discardLogger())

	_, err := c.Read(context.Background(), entity.OCRRequest{Content: "JVBERi0xLjQ=", Filename: "a.pdf"})
	assert.ErrorContains(t, err, "permission denied")

	_, err = c.Read(context.Background(), entity.OCRRequest{Content: "%%%", Filename: "a.pdf"})
	assert.ErrorContains(t, err, "decode content")
}
