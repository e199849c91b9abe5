package rules

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

func embeddedFiles(t *testing.T) fstest.MapFS {
	t.Helper()
	out := fstest.MapFS{}
	for _, name := range []string{PatternsFile, MappingsFile, ValidationFile} {
		data, err := fs.ReadFile(embedded, "tables/"+name)
		require.NoError(t, err)
		out[name] = &fstest.MapFile{Data: data}
	}
	return out
}

func TestDefaultLoads(t *testing.T) {
	set := Default()
	require.NotNil(t, set)
	for table, v := range set.Versions() {
		assert.NotEmpty(t, v, table)
	}
	assert.NotEmpty(t, set.Patterns.Brands)
	assert.Contains(t, set.Patterns.NameKeys, "nameofship")
}

func TestMappingsCoverEveryRecordField(t *testing.T) {
	set := Default()
	for _, name := range entity.RecordFields() {
		f, ok := set.Mappings.Field(name)
		if assert.True(t, ok, "no mapping for %s", name) {
			assert.NotEmpty(t, f.Aliases, name)
		}
	}
}

func TestValidationRulesReferenceMappedFields(t *testing.T) {
	set := Default()
	for _, r := range set.Validation.Fields {
		_, ok := set.Mappings.Field(r.Name)
		assert.True(t, ok, "rule %s has no mapping", r.Name)
	}
	name, ok := set.Validation.Rule("name")
	require.True(t, ok)
	assert.True(t, name.Required)
	assert.Equal(t, 3, name.MinLength)
}

func TestPatternTable(t *testing.T) {
	tests := []struct {
		field string
		text  string
		want  string
	}{
		{"yacht_name", "Name of Ship: LADY M\nFlag: MALTA", "LADY M"},
		{"flag_state", "Official No 12345\nFlag State: Cayman Islands\n", "Cayman Islands"},
		{"call_sign", "Call Sign: 9HA1234", "9HA1234"},
		{"imo_number", "IMO No. 9876543", "9876543"},
		{"mmsi", "MMSI: 215123456", "215123456"},
		{"official_number", "Official Number: 12345", "12345"},
		{"home_port", "Port of Registry: VALLETTA", "VALLETTA"},
		{"certificate_number", "Certificate No: CR-2024/17", "CR-2024/17"},
		{"when_and_where_built", "When and where built: 2025 AZIMUT BENETTI SPA, VIAREGGIO\n", "2025 AZIMUT BENETTI SPA, VIAREGGIO"},
		{"year_built", "Year of build 2019", "2019"},
		{"length_overall", "Length overall (m): 45.20", "45.20"},
		{"beam", "Breadth 8,5 m", "8,5"},
		{"draft", "Draught: 2.4", "2.4"},
		{"gross_tonnage", "Gross Tonnage 145", "145"},
		{"gross_tonnage", "GT 145 / NT 43", "145"},
		{"net_tonnage", "GT 145 / NT 43", "43"},
		{"hull_material", "Hull material: GRP", "GRP"},
		{"owner_name", "Registered Owner: Blue Sea Holdings Ltd\n", "Blue Sea Holdings Ltd"},
		{"date_of_issue", "Date of issue: 3rd March 2024", "3rd March 2024"},
		{"date_of_expiry", "Valid until 2027-03-02", "2027-03-02"},
		{"registration_date", "Date of registration 01/02/2020", "01/02/2020"},
	}
	table := Default().Patterns
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			var got string
			for _, p := range table.ForField(tt.field) {
				if v, ok := p.Find(tt.text); ok {
					got = v
					break
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternFieldsOrder(t *testing.T) {
	fields := Default().Patterns.Fields()
	require.NotEmpty(t, fields)
	assert.Equal(t, "yacht_name", fields[0])
	seen := map[string]bool{}
	for _, f := range fields {
		assert.False(t, seen[f], "duplicate %s", f)
		seen[f] = true
	}
}

func TestLoadRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errPart string
	}{
		{
			name:    "missing version",
			file:    PatternsFile,
			content: "patterns: []\n",
			errPart: PatternsFile,
		},
		{
			name:    "bad regex",
			file:    PatternsFile,
			content: "version: x\npatterns:\n  - id: a\n    field: a\n    regex: '('\n    group: 1\n",
			errPart: `pattern "a"`,
		},
		{
			name:    "group out of range",
			file:    PatternsFile,
			content: "version: x\npatterns:\n  - id: a\n    field: a\n    regex: 'abc'\n    group: 1\n",
			errPart: "out of range",
		},
		{
			name:    "unknown category",
			file:    MappingsFile,
			content: "version: x\nfields:\n  - name: name\n    category: hull\n    type: string\n",
			errPart: MappingsFile,
		},
		{
			name:    "unknown canonical field",
			file:    ValidationFile,
			content: "version: x\nfields:\n  - name: colour\n",
			errPart: `unknown canonical field "colour"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := embeddedFiles(t)
			files[tt.file] = &fstest.MapFile{Data: []byte(tt.content)}
			_, err := Load(files)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	files := embeddedFiles(t)
	delete(files, MappingsFile)
	_, err := Load(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read "+MappingsFile)
}
