package report

import (
	"fmt"
	"sort"
	"strings"

	"gofinemap/domain/susie"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders a human-readable fit report in markdown
func Markdown(result *susie.FitResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fine-mapping report %s\n\n", result.ID.String())
	fmt.Fprintf(&b, "- Variables: %d\n", result.NumVariables)
	fmt.Fprintf(&b, "- Effect layers: %d\n", result.NumLayers)
	fmt.Fprintf(&b, "- Converged: %t after %d sweeps\n", result.Converged, result.Iterations)
	fmt.Fprintf(&b, "- Residual variance: %.4g\n", result.ResidualVariance)
	if n := len(result.ELBOTrace); n > 0 {
		fmt.Fprintf(&b, "- Final ELBO: %.4f\n", result.ELBOTrace[n-1])
	}
	if len(result.Outliers) > 0 {
		fmt.Fprintf(&b, "- Flagged z-score outliers: %v\n", result.Outliers)
	}

	fmt.Fprintf(&b, "\n## Credible sets (%d)\n\n", len(result.CredibleSets))
	if len(result.CredibleSets) == 0 {
		b.WriteString("No credible set passed the purity filter.\n")
	} else {
		b.WriteString("| Set | Layer | Size | Coverage | Purity | Variables |\n")
		b.WriteString("|-----|-------|------|----------|--------|-----------|\n")
		for i, cs := range result.CredibleSets {
			fmt.Fprintf(&b, "| %d | %d | %d | %.3f | %.3f | %v |\n",
				i+1, cs.Layer, len(cs.Variables), cs.Coverage, cs.Purity, cs.Variables)
		}
	}

	b.WriteString("\n## Top variables by PIP\n\n")
	b.WriteString("| Variable | PIP |\n|----------|-----|\n")
	for _, idx := range topPIP(result.PIP, 10) {
		fmt.Fprintf(&b, "| %d | %.4f |\n", idx, result.PIP[idx])
	}
	return b.String()
}

// HTML renders the markdown report as an HTML fragment
func HTML(result *susie.FitResult) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(Markdown(result)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

// topPIP returns the indices of the k largest PIP values, descending,
// ties by index.
func topPIP(pip []float64, k int) []int {
	order := make([]int, len(pip))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pip[order[a]] > pip[order[b]]
	})
	if k > len(order) {
		k = len(order)
	}
	return order[:k]
}
