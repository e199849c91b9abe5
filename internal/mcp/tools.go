package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joseph-ayodele/yacht-extract/internal/core"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
)

type ExtractInput struct {
	Path         string `json:"path,omitempty" jsonschema:"local PDF or image to scan; alternative to content"`
	Content      string `json:"content,omitempty" jsonschema:"base64 document body, optionally a data: URL"`
	Filename     string `json:"filename,omitempty" jsonschema:"original file name, required with content"`
	CategoryHint string `json:"category_hint,omitempty" jsonschema:"document category if already known"`
}

type ExtractOutput struct {
	JobID           string            `json:"job_id,omitempty"`
	Success         bool              `json:"success"`
	Error           string            `json:"error,omitempty"`
	Category        string            `json:"category,omitempty"`
	Strategy        string            `json:"strategy,omitempty"`
	FieldsExtracted int               `json:"fields_extracted"`
	FieldsPopulated int               `json:"fields_populated"`
	Accuracy        float64           `json:"accuracy"`
	Record          map[string]any    `json:"record,omitempty"`
	Unmapped        map[string]string `json:"unmapped,omitempty"`
	Log             []string          `json:"log,omitempty"`
}

type MergeInput struct {
	Previous map[string]any            `json:"previous,omitempty" jsonschema:"fields already on the onboarding record"`
	Sources  map[string]map[string]any `json:"sources" jsonschema:"blocks keyed by key_information, basic_info, extracted_fields or form_fields"`
}

type MergeOutput struct {
	Fields   map[string]any `json:"fields"`
	Coverage []CoverageItem `json:"coverage"`
}

type CoverageItem struct {
	Field  string `json:"field"`
	Source string `json:"source"`
	Key    string `json:"key"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_yacht_document",
		Description: "Scan a yacht certificate or registration document and return the populated vessel record",
	}, s.handleExtract)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "merge_onboarding_sources",
		Description: "Merge extracted source blocks into an onboarding record; existing fields always win",
	}, s.handleMerge)
}

func (s *Server) handleExtract(ctx context.Context, _ *mcp.CallToolRequest, in ExtractInput) (*mcp.CallToolResult, ExtractOutput, error) {
	var (
		out core.Outcome
		err error
	)
	switch {
	case in.Path != "" && in.Content != "":
		return nil, ExtractOutput{}, errors.New("set either path or content, not both")
	case in.Path != "":
		out, err = s.processor.ProcessFile(ctx, in.Path, in.CategoryHint)
	case in.Content != "":
		out, err = s.processor.Process(ctx, entity.ExtractionRequest{
			Content:      in.Content,
			Filename:     in.Filename,
			CategoryHint: in.CategoryHint,
		})
	default:
		return nil, ExtractOutput{}, errors.New("path or content is required")
	}
	if out.Result == nil {
		return nil, ExtractOutput{}, err
	}
	if err != nil {
		s.logger.Warn("mcp.extract.failed", "filename", out.Result.Filename, "err", err)
	}
	return nil, toExtractOutput(out), nil
}

func toExtractOutput(out core.Outcome) ExtractOutput {
	res := out.Result
	o := ExtractOutput{
		Success:         res.Success,
		Error:           res.Error,
		FieldsExtracted: res.FieldsExtracted,
		FieldsPopulated: res.FieldsPopulated,
		Accuracy:        res.Accuracy,
	}
	if out.JobID != uuid.Nil {
		o.JobID = out.JobID.String()
	}
	if res.Analysis != nil {
		o.Category = string(res.Analysis.Category)
	}
	if res.Population != nil {
		o.Strategy = string(res.Population.Strategy)
	}
	if res.Record != nil {
		o.Record = map[string]any{}
		for _, f := range res.Record.SetFields() {
			v, _ := res.Record.Get(f)
			o.Record[f] = v
		}
	}
	if res.Record != nil && len(res.Record.Extras) > 0 {
		o.Unmapped = res.Record.Extras
	}
	for _, e := range res.Log {
		o.Log = append(o.Log, fmt.Sprintf("[%s] %s: %s", e.Level, e.Phase, e.Message))
	}
	return o
}

func (s *Server) handleMerge(_ context.Context, _ *mcp.CallToolRequest, in MergeInput) (*mcp.CallToolResult, MergeOutput, error) {
	src := onboarding.Sources{}
	for name, block := range in.Sources {
		source := onboarding.Source(name)
		if !knownSource(source) {
			return nil, MergeOutput{}, fmt.Errorf("unknown source %q", name)
		}
		src[source] = block
	}
	state := s.merger.Merge(onboarding.State{Fields: in.Previous}, src)

	out := MergeOutput{Fields: state.Fields, Coverage: make([]CoverageItem, 0, len(state.Coverage))}
	for _, c := range state.Coverage {
		out.Coverage = append(out.Coverage, CoverageItem{Field: c.Field, Source: string(c.Source), Key: c.Key})
	}
	return nil, out, nil
}

func knownSource(s onboarding.Source) bool {
	for _, p := range onboarding.Priority {
		if p == s && p != onboarding.SourceExisting {
			return true
		}
	}
	return false
}
