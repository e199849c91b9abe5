package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFields(t *testing.T) {
	fields := RecordFields()
	require.NotEmpty(t, fields)
	assert.Equal(t, "name", fields[0])
	assert.Contains(t, fields, "grossTonnage")
	assert.NotContains(t, fields, "extras")
	assert.True(t, IsRecordField("certificateExpiryDate"))
	assert.False(t, IsRecordField("random_vendor_field"))

	fields[0] = "mutated"
	assert.Equal(t, "name", RecordFields()[0])
}

func TestRecordSetGet(t *testing.T) {
	var r YachtRecord
	tests := []struct {
		field string
		in    any
		ok    bool
		want  any
	}{
		{"name", "LADY M", true, "LADY M"},
		{"name", 12, false, nil},
		{"lengthOverall", 45.2, true, 45.2},
		{"grossTonnage", 145, true, 145.0},
		{"year", 2019, true, 2019},
		{"year", 2019.0, true, 2019},
		{"numberOfEngines", 2.5, false, nil},
		{"beam", "8.5", false, nil},
		{"unknown", "x", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.ok, r.Set(tt.field, tt.in))
			if !tt.ok {
				return
			}
			got, ok := r.Get(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, []string{"name", "year", "lengthOverall", "grossTonnage"}, r.SetFields())
}

func TestRecordGetUnset(t *testing.T) {
	var r *YachtRecord
	_, ok := r.Get("name")
	assert.False(t, ok)

	r = &YachtRecord{Extras: map[string]string{"b": "2", "a": "1"}}
	_, ok = r.Get("flagState")
	assert.False(t, ok)
	assert.Empty(t, r.SetFields())
	assert.Equal(t, []string{"a", "b"}, r.ExtraKeys())
}
