package onboarding

import "github.com/joseph-ayodele/yacht-extract/internal/entity"

// FromResult builds merge sources from a pipeline result: vendor key-values
// as key_information, the populated record as basic_info, mapped fields as
// extracted_fields and recognized fields as form_fields.
func FromResult(res *entity.Result) Sources {
	src := Sources{}
	if res == nil {
		return src
	}
	if res.OCR != nil {
		src[SourceKeyInformation] = toAny(res.OCR.KeyValues)
	}
	if res.Record != nil {
		block := map[string]any{}
		for _, f := range res.Record.SetFields() {
			v, _ := res.Record.Get(f)
			block[f] = v
		}
		if len(block) > 0 {
			src[SourceBasicInfo] = block
		}
	}
	if res.Mapping != nil {
		src[SourceExtractedFields] = toAny(res.Mapping.Fields)
	}
	if res.Recognition != nil {
		src[SourceFormFields] = toAny(res.Recognition.Fields)
	}
	return src
}

// MergeResults folds several results, earlier results first.
func (m *Merger) MergeResults(prev State, results ...*entity.Result) State {
	s := prev
	for _, r := range results {
		s = m.Merge(s, FromResult(r))
	}
	return s
}

func toAny(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
