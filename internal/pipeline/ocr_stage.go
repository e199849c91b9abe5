package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

// DocumentReader is the external document-understanding call.
type DocumentReader interface {
	Read(ctx context.Context, req entity.OCRRequest) (entity.RawOCR, error)
}

// BuildOCRRequest maps the analysis onto the OCR service contract:
// the category becomes a document-type enum and the recommendations a comma-joined hint.
func BuildOCRRequest(req entity.ExtractionRequest, fa entity.FileAnalysis) entity.OCRRequest {
	payload, _ := SplitDataURL(req.Content)
	return entity.OCRRequest{
		Content:      payload,
		Filename:     req.Filename,
		MimeType:     fa.MimeType,
		DocumentType: constants.DocumentTypeFor(fa.Category),
		Hint:         strings.Join(fa.Recommendations, ","),
	}
}

func readDocument(ctx context.Context, reader DocumentReader, req entity.OCRRequest) (entity.RawOCR, error) {
	if reader == nil {
		return entity.RawOCR{}, common.NewAppError(common.CodeOCRFailed, "no document reader configured", common.ErrTransport)
	}
	raw, err := reader.Read(ctx, req)
	if err != nil {
		return entity.RawOCR{}, common.NewAppError(common.CodeOCRFailed, "document reader failed", fmt.Errorf("%w: %w", common.ErrTransport, err))
	}
	if raw.KeyValues == nil {
		raw.KeyValues = map[string]string{}
	}
	return raw, nil
}
