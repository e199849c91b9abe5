package onboarding

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
)

func newTestMerger() *Merger {
	now := func() time.Time { return time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC) }
	return NewMerger(rules.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)), now)
}

func coverageOf(s State, field string) (Coverage, bool) {
	for _, c := range s.Coverage {
		if c.Field == field {
			return c, true
		}
	}
	return Coverage{}, false
}

func TestMergeKeyInformationBeatsFormFields(t *testing.T) {
	s := newTestMerger().Merge(State{}, Sources{
		SourceFormFields:     {"Flag": "CAYMAN ISLANDS", "Beam": "8.5"},
		SourceKeyInformation: {"Flag_State": "MALTA"},
	})
	assert.Equal(t, "MALTA", s.Fields["flagState"])
	assert.Equal(t, 8.5, s.Fields["beam"])
	c, ok := coverageOf(s, "flagState")
	require.True(t, ok)
	assert.Equal(t, SourceKeyInformation, c.Source)
	assert.Equal(t, "Flag_State", c.Key)
	assert.True(t, s.Merged)
}

func TestMergePriorityOrder(t *testing.T) {
	s := newTestMerger().Merge(State{Fields: map[string]any{"homePort": "GOZO"}}, Sources{
		SourceKeyInformation:  {"Port_of_Registry": "VALLETTA"},
		SourceBasicInfo:       {"vesselName": "LADY M", "loa": 45.2},
		SourceExtractedFields: {"name": "OTHER", "lengthOverall": "50"},
		SourceFormFields:      {"yacht_name": "THIRD"},
	})
	assert.Equal(t, "GOZO", s.Fields["homePort"])
	assert.Equal(t, "LADY M", s.Fields["name"])
	assert.Equal(t, 45.2, s.Fields["lengthOverall"])

	c, _ := coverageOf(s, "homePort")
	assert.Equal(t, SourceExisting, c.Source)
	c, _ = coverageOf(s, "name")
	assert.Equal(t, SourceBasicInfo, c.Source)
}

func TestMergeRejectedValueFallsThrough(t *testing.T) {
	s := newTestMerger().Merge(State{}, Sources{
		SourceKeyInformation: {"Length_overall": "forty five"},
		SourceFormFields:     {"LOA": "45,2 m"},
	})
	assert.Equal(t, 45.2, s.Fields["lengthOverall"])
	c, _ := coverageOf(s, "lengthOverall")
	assert.Equal(t, SourceFormFields, c.Source)
}

func TestMergeComposites(t *testing.T) {
	s := newTestMerger().Merge(State{}, Sources{
		SourceKeyInformation: {
			"When_and_where_built":  "2025 AZIMUT BENETTI SPA, VIAREGGIO (LUCCA), ITALY",
			"Official No/Year/Port": "12345/2019/VALLETTA",
		},
		SourceFormFields: {"Builder": "SOMEONE ELSE"},
	})
	assert.Equal(t, 2025, s.Fields["year"])
	assert.Equal(t, "AZIMUT BENETTI SPA", s.Fields["builder"])
	assert.Equal(t, "VIAREGGIO (LUCCA), ITALY", s.Fields["buildLocation"])
	assert.Equal(t, "12345", s.Fields["officialNumber"])
	assert.Equal(t, "VALLETTA", s.Fields["homePort"])

	c, _ := coverageOf(s, "builder")
	assert.Equal(t, "When_and_where_built", c.Key)
}

func TestMergeTonnageSanity(t *testing.T) {
	tests := []struct {
		name    string
		src     Sources
		want    any
		wantNet any
	}{
		{
			name: "small gross replaced by combined",
			src: Sources{
				SourceKeyInformation: {"Gross_Tonnage": "12"},
				SourceFormFields:     {"Tonnage": "GT 145 / NT 43"},
			},
			want:    145.0,
			wantNet: 43.0,
		},
		{
			name: "small gross without combined stays unset",
			src:  Sources{SourceKeyInformation: {"Gross_Tonnage": "12"}},
		},
		{
			name: "small gross not above length is rejected",
			src:  Sources{SourceKeyInformation: {"Gross_Tonnage": "12", "LOA": "14.5"}},
		},
		{
			name: "small gross above a short length is kept",
			src:  Sources{SourceKeyInformation: {"Gross_Tonnage": "12", "LOA": "9.8"}},
			want: 12.0,
		},
		{
			name: "plausible gross kept",
			src: Sources{
				SourceKeyInformation: {"Gross_Tonnage": "499"},
				SourceFormFields:     {"Tonnage": "GT 145 / NT 43"},
			},
			want:    499.0,
			wantNet: 43.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestMerger().Merge(State{}, tt.src)
			assert.Equal(t, tt.want, s.Fields["grossTonnage"])
			assert.Equal(t, tt.wantNet, s.Fields["netTonnage"])
			if tt.want != nil {
				assert.GreaterOrEqual(t, s.Fields["grossTonnage"].(float64), 12.0)
			}
		})
	}
}

func TestMergeIdempotent(t *testing.T) {
	m := newTestMerger()
	src := Sources{
		SourceKeyInformation: {"Name_of_Ship": "X", "Gross_Tonnage": "12"},
		SourceBasicInfo:      {"flag": "MALTA"},
		SourceFormFields:     {"Tonnage": "145/43", "Beam": 8.5},
	}
	once := m.Merge(State{}, src)
	twice := m.Merge(once, src)
	assert.Equal(t, once, twice)
}

func TestMergeCoverageMatchesFields(t *testing.T) {
	s := newTestMerger().Merge(State{
		Fields:   map[string]any{"name": "X", "beam": 8.5},
		Coverage: []Coverage{{Field: "name", Source: SourceKeyInformation, Key: "Name_of_Ship"}, {Field: "gone", Source: SourceFormFields}},
	}, Sources{
		SourceKeyInformation: {"Flag_State": "MALTA", "Random_Vendor_Field": "foo"},
	})
	require.Len(t, s.Coverage, len(s.Fields))
	seen := map[string]bool{}
	for _, c := range s.Coverage {
		assert.Contains(t, s.Fields, c.Field)
		assert.False(t, seen[c.Field], c.Field)
		seen[c.Field] = true
	}
	assert.NotContains(t, s.Fields, "random_vendor_field")
	c, _ := coverageOf(s, "name")
	assert.Equal(t, SourceKeyInformation, c.Source)
	c, _ = coverageOf(s, "beam")
	assert.Equal(t, SourceExisting, c.Source)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	prev := State{Fields: map[string]any{"name": "X"}}
	_ = newTestMerger().Merge(prev, Sources{SourceKeyInformation: {"Flag_State": "MALTA"}})
	assert.Equal(t, map[string]any{"name": "X"}, prev.Fields)
	assert.Empty(t, prev.Coverage)
}

func TestMergeResults(t *testing.T) {
	first := &entity.Result{
		OCR:         &entity.RawOCR{KeyValues: map[string]string{"Flag_State": "MALTA"}},
		Mapping:     &entity.Mapping{Fields: map[string]string{"flagState": "MALTA"}},
		Recognition: &entity.Recognition{Fields: map[string]string{"Flag_State": "MALTA"}},
	}
	name := "LADY M"
	second := &entity.Result{
		OCR:    &entity.RawOCR{KeyValues: map[string]string{"Flag_State": "CAYMAN ISLANDS"}},
		Record: &entity.YachtRecord{Name: &name},
	}
	s := newTestMerger().MergeResults(State{}, first, second)
	assert.Equal(t, "MALTA", s.Fields["flagState"])
	assert.Equal(t, "LADY M", s.Fields["name"])

	rec := s.Record()
	require.NotNil(t, rec.FlagState)
	assert.Equal(t, "MALTA", *rec.FlagState)
	assert.Empty(t, FromResult(nil))
}
