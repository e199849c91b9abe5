package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"month year", "March 2024", "01-03-2024"},
		{"short month year", "Sep 2019", "01-09-2019"},
		{"day month year", "3 March 2024", "03-03-2024"},
		{"ordinal day", "21st June 2023", "21-06-2023"},
		{"day of month", "1st of May 2020", "01-05-2020"},
		{"short month", "02 Feb 2021", "02-02-2021"},
		{"slashes", "03/03/2024", "03-03-2024"},
		{"single digits", "3/7/2024", "03-07-2024"},
		{"dots", "15.08.2018", "15-08-2018"},
		{"dashes", "15-08-2018", "15-08-2018"},
		{"iso", "2024-03-02", "02-03-2024"},
		{"surrounding space", "  2024-03-02 ", "02-03-2024"},
		{"impossible day", "31/02/2024", "31/02/2024"},
		{"month out of range", "12/13/2024", "12/13/2024"},
		{"unknown month", "3 Smarch 2024", "3 Smarch 2024"},
		{"free text", "valid for five years", "valid for five years"},
		{"bare year", "2019", "2019"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	inputs := []string{
		"03-03-2024", "March 2024", "3rd March 2024", "2024-03-02", "03.03.2024",
		"31/02/2024", "not a date", "1 Jan 1999", "29/02/2024",
	}
	for _, in := range inputs {
		once := NormalizeDate(in)
		assert.Equal(t, once, NormalizeDate(once), in)
	}
}

func TestIsNormalizedDate(t *testing.T) {
	assert.True(t, IsNormalizedDate("29-02-2024"))
	assert.False(t, IsNormalizedDate("29-02-2023"))
	assert.False(t, IsNormalizedDate("2024-02-29"))
	assert.False(t, IsNormalizedDate("1-2-2024"))
}
