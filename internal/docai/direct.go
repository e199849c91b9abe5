package docai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
)

const (
	defaultDirectTimeout = 60 * time.Second
	defaultConfidence    = 0.85
)

// responseSchema only rejects payloads that are not JSON objects; the
// field layout varies by backend and is duck-typed afterwards.
var responseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"confidence": map[string]any{"type": "number"},
		"success":    map[string]any{"type": "boolean"},
	},
}

// reserved top-level keys are never treated as extracted fields.
var reserved = map[string]bool{
	"text": true, "rawText": true, "confidence": true, "success": true,
	"status": true, "error": true, "message": true, "document": true,
	"documentType": true, "requestId": true, "action": true,
}

type directDocument struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

type directRequest struct {
	Action       string         `json:"action"`
	Document     directDocument `json:"document"`
	DocumentType string         `json:"documentType"`
	Hint         string         `json:"hint,omitempty"`
}

// DirectClient calls a JSON document-processing backend over HTTP.
type DirectClient struct {
	url     string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewDirectClient(url, apiKey string, timeout time.Duration, logger *slog.Logger) *DirectClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultDirectTimeout
	}
	return &DirectClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// WithRateLimit caps outgoing calls at rps per second. rps <= 0 removes the cap.
func (c *DirectClient) WithRateLimit(rps float64, burst int) *DirectClient {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

func (c *DirectClient) Read(ctx context.Context, req entity.OCRRequest) (entity.RawOCR, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return entity.RawOCR{}, fmt.Errorf("direct ocr: rate limit: %w", err)
		}
	}
	body := directRequest{
		Action: "process_document",
		Document: directDocument{
			Content:  req.Content,
			Filename: req.Filename,
			MimeType: req.MimeType,
		},
		DocumentType: string(req.DocumentType),
		Hint:         req.Hint,
	}
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	raw, status, err := sendJSON(ctx, c.client, c.url, body, headers, c.logger)
	if err != nil {
		if status != 0 {
			return entity.RawOCR{}, fmt.Errorf("direct ocr: %w: %s", err, truncate(string(raw), 200))
		}
		return entity.RawOCR{}, fmt.Errorf("direct ocr: %w", err)
	}
	out, err := parseDirectResponse(raw)
	if err != nil {
		c.logger.Warn("docai.direct.bad_payload", "filename", req.Filename, "error", err)
		return entity.RawOCR{}, fmt.Errorf("direct ocr: %w", err)
	}
	return out, nil
}

func parseDirectResponse(raw []byte) (entity.RawOCR, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return entity.RawOCR{}, fmt.Errorf("decode response: %w", err)
	}
	if err := rules.ValidateAgainstSchema(responseSchema, doc); err != nil {
		return entity.RawOCR{}, err
	}
	obj := doc.(map[string]any)

	if ok, isBool := obj["success"].(bool); isBool && !ok {
		msg, _ := obj["error"].(string)
		if msg == "" {
			msg = "backend reported failure"
		}
		return entity.RawOCR{}, errors.New(msg)
	}

	out := entity.RawOCR{
		KeyValues:  map[string]string{},
		Text:       firstText(obj),
		Confidence: defaultConfidence,
		Transport:  entity.TransportDirect,
	}
	if n, ok := obj["confidence"].(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			out.Confidence = f
		}
	}

	found := false
	for _, key := range []string{"keyValuePairs", "fields", "extractedData"} {
		if v, ok := obj[key]; ok {
			collectPairs(v, out.KeyValues)
			found = true
			break
		}
	}
	if !found {
		for _, k := range sortedKeys(obj) {
			if reserved[k] {
				continue
			}
			if s, ok := scalarString(obj[k]); ok {
				out.KeyValues[k] = s
			}
		}
	}
	return out, nil
}

func firstText(obj map[string]any) string {
	for _, k := range []string{"text", "rawText"} {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	if d, ok := obj["document"].(map[string]any); ok {
		if s, ok := d["text"].(string); ok {
			return s
		}
	}
	return ""
}

// collectPairs accepts either an object of name -> value or a list of
// {key|name|fieldName, value|text} entries. The first value for a key wins.
func collectPairs(v any, into map[string]string) {
	add := func(k, s string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		if _, exists := into[k]; !exists {
			into[k] = s
		}
	}
	switch t := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			if s, ok := scalarString(t[k]); ok {
				add(k, s)
			} else if inner, ok := t[k].(map[string]any); ok {
				if s, ok := scalarString(inner["value"]); ok {
					add(k, s)
				}
			}
		}
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			var key string
			for _, kk := range []string{"key", "name", "fieldName"} {
				if s, ok := m[kk].(string); ok && s != "" {
					key = s
					break
				}
			}
			for _, vk := range []string{"value", "text"} {
				if s, ok := scalarString(m[vk]); ok {
					add(key, s)
					break
				}
			}
		}
	}
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
