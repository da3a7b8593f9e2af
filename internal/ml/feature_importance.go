package ml

import (
	"sort"
)

// FeatureStats contains split usage for a single feature
type FeatureStats struct {
	Name            string  `json:"name"`
	ImportanceScore float64 `json:"importance_score"`
	UsageCount      int64   `json:"usage_count"`
}

// splitCounter is implemented by ensembles that can report how often each
// feature is used to split, weighted by estimator contribution.
type splitCounter interface {
	splitUsage(nFeatures int) ([]float64, []int64)
}

func (t *Tree) splitUsage(usage []float64, counts []int64, weight float64) {
	for i, l := range t.ChildrenLeft {
		if l == leaf {
			continue
		}
		f := t.Feature[i]
		usage[f] += weight
		counts[f]++
	}
}

func (a *AdaBoost) splitUsage(nFeatures int) ([]float64, []int64) {
	usage := make([]float64, nFeatures)
	counts := make([]int64, nFeatures)
	for i := range a.Estimators {
		a.Estimators[i].splitUsage(usage, counts, a.Weights[i])
	}
	return usage, counts
}

func (g *GradientBoosting) splitUsage(nFeatures int) ([]float64, []int64) {
	usage := make([]float64, nFeatures)
	counts := make([]int64, nFeatures)
	for i := range g.Estimators {
		g.Estimators[i].splitUsage(usage, counts, g.LearningRate)
	}
	return usage, counts
}

// FeatureImportance returns features ranked by weighted split usage, scores
// normalized to sum to 1. Features never used to split are omitted. Returns
// nil for regressors that are not tree ensembles.
func (m *Model) FeatureImportance() []FeatureStats {
	if m == nil {
		return nil
	}
	sc, ok := m.regressor.(splitCounter)
	if !ok {
		return nil
	}

	usage, counts := sc.splitUsage(len(m.featureNames))
	total := 0.0
	for _, u := range usage {
		total += u
	}
	if total == 0 {
		return nil
	}

	stats := make([]FeatureStats, 0, len(usage))
	for i, u := range usage {
		if counts[i] == 0 {
			continue
		}
		stats = append(stats, FeatureStats{
			Name:            m.featureNames[i],
			ImportanceScore: u / total,
			UsageCount:      counts[i],
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].ImportanceScore > stats[j].ImportanceScore
	})

	return stats
}

// TopFeatures returns the names of the n most important features
func (m *Model) TopFeatures(n int) []string {
	stats := m.FeatureImportance()
	if n > len(stats) {
		n = len(stats)
	}

	result := make([]string, n)
	for i := 0; i < n; i++ {
		result[i] = stats[i].Name
	}
	return result
}
