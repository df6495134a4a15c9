package susie

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gofinemap/domain/susie"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// priorVarianceFloor treats layers at or below this prior variance as
// deactivated for summarization.
const priorVarianceFloor = 1e-9

// MarginalPIP aggregates per-layer inclusion probabilities into a marginal
// posterior inclusion probability per variable:
//
//	PIP_i = 1 - prod_l (1 - alpha_l[i])
//
// treating layers as independent events. Deactivated layers are excluded;
// their uniform alpha carries no signal.
func MarginalPIP(layers []susie.EffectLayer) []float64 {
	if len(layers) == 0 {
		return nil
	}
	p := len(layers[0].Alpha)
	pip := make([]float64, p)
	for i := 0; i < p; i++ {
		keep := 1.0
		for l := range layers {
			if layers[l].PriorVariance <= priorVarianceFloor {
				continue
			}
			keep *= 1 - layers[l].Alpha[i]
		}
		pip[i] = 1 - keep
	}
	return pip
}

// ExtractCredibleSets builds one credible set per active layer: variables
// ranked by posterior probability, accumulated until the target coverage is
// reached, with ties at the boundary broken lowest-index-first. Candidate
// sets whose minimum pairwise absolute correlation falls below minPurity
// are discarded whole, and identical sets from different layers are
// reported once.
func ExtractCredibleSets(layers []susie.EffectLayer, R *mat.Dense, coverage, minPurity float64) []susie.CredibleSet {
	if coverage <= 0 || coverage > 1 {
		coverage = 0.95
	}

	var sets []susie.CredibleSet
	seen := make(map[string]bool)
	for l := range layers {
		ly := &layers[l]
		if ly.PriorVariance <= priorVarianceFloor {
			continue
		}

		members := coverageSet(ly.Alpha, coverage)
		if len(members) == 0 {
			continue
		}

		purity := minPairwiseAbsCorrelation(members, R)
		if purity < minPurity {
			// The whole set is unresolved for this layer, never truncated.
			continue
		}

		key := setKey(members)
		if seen[key] {
			continue
		}
		seen[key] = true

		attained := 0.0
		for _, j := range members {
			attained += ly.Alpha[j]
		}
		sets = append(sets, susie.CredibleSet{
			Layer:     l,
			Variables: members,
			Coverage:  attained,
			Purity:    purity,
		})
	}
	return sets
}

// coverageSet returns the minimal set of variable indices, by descending
// posterior probability, whose cumulative probability reaches the target.
// Equal probabilities order by ascending index so the boundary is
// deterministic.
func coverageSet(alpha []float64, coverage float64) []int {
	order := make([]int, len(alpha))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if alpha[order[a]] != alpha[order[b]] {
			return alpha[order[a]] > alpha[order[b]]
		}
		return order[a] < order[b]
	})

	cum := 0.0
	var members []int
	for _, j := range order {
		members = append(members, j)
		cum += alpha[j]
		if cum >= coverage {
			break
		}
	}
	// A full sweep of a proper probability vector always reaches the
	// target; anything further off than float noise is not a usable set.
	if cum < coverage-1e-9 {
		return nil
	}
	sort.Ints(members)
	return members
}

// minPairwiseAbsCorrelation computes the purity of a candidate set: the
// minimum |R[i][j]| across all member pairs. Singletons are perfectly pure.
func minPairwiseAbsCorrelation(members []int, R *mat.Dense) float64 {
	if len(members) < 2 {
		return 1
	}
	var pairs []float64
	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			pairs = append(pairs, math.Abs(R.At(members[a], members[b])))
		}
	}
	purity, err := stats.Min(pairs)
	if err != nil {
		return 0
	}
	return purity
}

// setKey builds a deduplication key from sorted member indices.
func setKey(members []int) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = fmt.Sprintf("%d", m)
	}
	return strings.Join(parts, ",")
}
