package report

import (
	"strings"
	"testing"

	"gofinemap/domain/core"
	"gofinemap/domain/susie"

	"github.com/stretchr/testify/assert"
)

func sampleResult() *susie.FitResult {
	return &susie.FitResult{
		ID:               core.FitID("fit-abc"),
		NumVariables:     5,
		NumLayers:        2,
		ResidualVariance: 0.97,
		ELBOTrace:        []float64{-120.5, -110.2, -109.9},
		Converged:        true,
		Iterations:       3,
		PIP:              []float64{0.91, 0.05, 0.02, 0.01, 0.01},
		CredibleSets: []susie.CredibleSet{
			{Layer: 0, Variables: []int{0}, Coverage: 0.98, Purity: 1},
		},
		Outliers:  []int{3},
		CreatedAt: core.Now(),
	}
}

func TestMarkdownReportContents(t *testing.T) {
	md := Markdown(sampleResult())

	assert.Contains(t, md, "fit-abc")
	assert.Contains(t, md, "Converged: true after 3 sweeps")
	assert.Contains(t, md, "Credible sets (1)")
	assert.Contains(t, md, "| 1 | 0 | 1 | 0.980 | 1.000 | [0] |")
	assert.Contains(t, md, "Flagged z-score outliers: [3]")
	assert.Contains(t, md, "| 0 | 0.9100 |")
}

func TestMarkdownReportNoCredibleSets(t *testing.T) {
	result := sampleResult()
	result.CredibleSets = nil

	md := Markdown(result)
	assert.Contains(t, md, "No credible set passed the purity filter.")
}

func TestHTMLRendersTables(t *testing.T) {
	out := string(HTML(sampleResult()))

	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table")
	assert.Contains(t, out, "fit-abc")
}

func TestTopPIPOrdersDescending(t *testing.T) {
	pip := []float64{0.2, 0.9, 0.2, 0.5}

	top := topPIP(pip, 3)
	assert.Equal(t, []int{1, 3, 0}, top)

	all := topPIP(pip, 10)
	assert.Equal(t, []int{1, 3, 0, 2}, all)
}

func TestMarkdownLimitsTopVariables(t *testing.T) {
	result := sampleResult()
	result.NumVariables = 30
	result.PIP = make([]float64, 30)
	for i := range result.PIP {
		result.PIP[i] = float64(30-i) / 100
	}

	md := Markdown(result)
	section := md[strings.Index(md, "Top variables"):]
	// Header row plus ten data rows.
	assert.Equal(t, 11, strings.Count(section, "\n| "), "top table is capped at ten variables")
}
