package docai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

const defaultLibraryTimeout = 90 * time.Second

type processFunc func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)

// ClientLibrary reads documents through the Google Document AI client.
type ClientLibrary struct {
	process   processFunc
	closeFn   func() error
	processor string
	timeout   time.Duration
	dumpDir   string
	logger    *slog.Logger
}

// NewClientLibrary dials the regional Document AI endpoint for cfg.Location.
func NewClientLibrary(ctx context.Context, cfg common.OCRConfig, logger *slog.Logger) (*ClientLibrary, error) {
	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create document ai client: %w", err)
	}
	process := func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		return client.ProcessDocument(ctx, req)
	}
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, cfg.Location, cfg.ProcessorID)
	c := newClientLibrary(process, name, cfg.LibraryTimeout, cfg.DebugDumpDir, logger)
	c.closeFn = client.Close
	return c, nil
}

func newClientLibrary(process processFunc, processor string, timeout time.Duration, dumpDir string, logger *slog.Logger) *ClientLibrary {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultLibraryTimeout
	}
	return &ClientLibrary{
		process:   process,
		processor: processor,
		timeout:   timeout,
		dumpDir:   dumpDir,
		logger:    logger,
	}
}

func (c *ClientLibrary) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

func (c *ClientLibrary) Read(ctx context.Context, req entity.OCRRequest) (entity.RawOCR, error) {
	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.Content))
	if err != nil {
		return entity.RawOCR{}, fmt.Errorf("document ai: decode content: %w", err)
	}
	mime := req.MimeType
	if mime == "" || mime == constants.MimeUnknown {
		mime = constants.MimePDF
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.process(ctx, &documentaipb.ProcessRequest{
		Name: c.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: content, MimeType: mime},
		},
		SkipHumanReview: true,
	})
	if err != nil {
		c.logger.Error("docai.library.process_error", "filename", req.Filename, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return entity.RawOCR{}, fmt.Errorf("document ai: process document: %w", err)
	}
	c.dump(req.Filename, resp)

	out := documentToRaw(resp.GetDocument())
	c.logger.Info("docai.library.response", "filename", req.Filename, "key_values", len(out.KeyValues),
		"text_chars", len(out.Text), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (c *ClientLibrary) dump(filename string, resp *documentaipb.ProcessResponse) {
	if c.dumpDir == "" {
		return
	}
	b, err := protojson.MarshalOptions{Multiline: true}.Marshal(resp)
	if err != nil {
		c.logger.Warn("docai.library.dump_encode_error", "error", err)
		return
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	path := filepath.Join(c.dumpDir, fmt.Sprintf("%s-%s.json", base, uuid.NewString()[:8]))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		c.logger.Warn("docai.library.dump_write_error", "path", path, "error", err)
		return
	}
	c.logger.Debug("docai.library.dumped", "path", path)
}

// documentToRaw flattens form fields and entities into one key-value map.
// Form fields come first; for duplicate keys the first value is kept.
func documentToRaw(doc *documentaipb.Document) entity.RawOCR {
	out := entity.RawOCR{
		KeyValues:  map[string]string{},
		Confidence: defaultConfidence,
		Transport:  entity.TransportClientLibrary,
	}
	if doc == nil {
		return out
	}
	out.Text = doc.GetText()

	var sum float64
	var n int
	for _, page := range doc.GetPages() {
		for _, field := range page.GetFormFields() {
			key := strings.TrimSpace(textFromLayout(field.GetFieldName(), doc.GetText()))
			key = strings.TrimSpace(strings.TrimSuffix(key, ":"))
			if key == "" {
				continue
			}
			if _, exists := out.KeyValues[key]; exists {
				continue
			}
			out.KeyValues[key] = strings.TrimSpace(textFromLayout(field.GetFieldValue(), doc.GetText()))
			if v := field.GetFieldValue(); v != nil {
				sum += float64(v.GetConfidence())
				n++
			}
		}
	}
	for _, e := range doc.GetEntities() {
		addEntity(e, "", out.KeyValues)
	}
	if n > 0 {
		out.Confidence = sum / float64(n)
	}
	return out
}

// addEntity writes leaf entities as type -> mention text; nested properties
// are keyed parent/child.
func addEntity(e *documentaipb.Document_Entity, prefix string, into map[string]string) {
	key := e.GetType()
	if key == "" {
		return
	}
	if prefix != "" {
		key = prefix + "/" + key
	}
	if props := e.GetProperties(); len(props) > 0 {
		for _, p := range props {
			addEntity(p, key, into)
		}
		return
	}
	if _, exists := into[key]; exists {
		return
	}
	value := strings.TrimSpace(e.GetMentionText())
	if value == "" {
		value = strings.TrimSpace(e.GetNormalizedValue().GetText())
	}
	into[key] = value
}

// textFromLayout resolves a layout's text anchor against the document text.
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.GetTextAnchor() == nil {
		return ""
	}
	runes := []rune(fullText)
	var b strings.Builder
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start, end := int(seg.GetStartIndex()), int(seg.GetEndIndex())
		if start < 0 {
			start = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start > end {
			start = end
		}
		b.WriteString(string(runes[start:end]))
	}
	return b.String()
}
