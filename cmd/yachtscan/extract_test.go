package main

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/core"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

func TestPrintSummary(t *testing.T) {
	name := "SEA BREEZE"
	rec := entity.YachtRecord{Name: &name, Extras: map[string]string{"vendor_ref": "A1"}}
	out := core.Outcome{
		JobID: uuid.New(),
		Result: &entity.Result{
			Filename:        "registration.pdf",
			Success:         true,
			Population:      &entity.Population{Strategy: entity.StrategyAutoPopulate, Confidence: map[string]float64{"name": 0.8}},
			Record:          &rec,
			FieldsExtracted: 2,
			FieldsPopulated: 2,
			Accuracy:        100,
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, out)
	s := buf.String()
	assert.Contains(t, s, out.JobID.String())
	assert.Contains(t, s, "registration.pdf")
	assert.Contains(t, s, "SEA BREEZE")
	assert.Contains(t, s, "0.80")
	assert.Contains(t, s, "vendor_ref")
	assert.Contains(t, s, "2 extracted, 2 populated (100%)")
}

func TestPrintSummaryFailure(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, core.Outcome{Result: &entity.Result{Filename: "x.pdf", Error: "OCR_FAILED: down"}})
	assert.Contains(t, buf.String(), "failed: OCR_FAILED: down")
	assert.NotContains(t, buf.String(), "job:")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"extract", "batch", "merge", "mcp", "jobs", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestExtractCategoryFlagListsCategories(t *testing.T) {
	flag := extractCmd.Flags().Lookup("category")
	require.NotNil(t, flag)
	for _, c := range constants.AsStringSlice() {
		assert.Contains(t, flag.Usage, c)
	}
}
