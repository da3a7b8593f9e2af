package ml

import (
	"fmt"
	"math"
	"sort"
)

// leaf marks a missing child in the flat node arrays.
const leaf = -1

// Tree is a fitted regression tree in flat node-array form. Node 0 is the
// root; a node is a leaf when both children are -1. Internal nodes send a
// row left when x[Feature] <= Threshold.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// Validate checks structural consistency. Children must come after their
// parent so that traversal always terminates.
func (t *Tree) Validate(nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree node arrays differ in length (left=%d right=%d feature=%d threshold=%d value=%d)",
			n, len(t.ChildrenRight), len(t.Feature), len(t.Threshold), len(t.Value))
	}

	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leaf && r == leaf {
			if math.IsNaN(t.Value[i]) || math.IsInf(t.Value[i], 0) {
				return fmt.Errorf("leaf %d has non-finite value", i)
			}
			continue
		}
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, l, r)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d, model has %d features", i, f, nFeatures)
		}
		if math.IsNaN(t.Threshold[i]) {
			return fmt.Errorf("node %d has NaN threshold", i)
		}
	}

	return nil
}

// Predict walks the tree for one row. The tree must have been validated.
func (t *Tree) Predict(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// AdaBoost is an AdaBoost.R2 ensemble. Its prediction is the weighted
// median of the estimator predictions.
type AdaBoost struct {
	Estimators []Tree
	Weights    []float64
	nFeatures  int
}

func NewAdaBoost(estimators []Tree, weights []float64, nFeatures int) (*AdaBoost, error) {
	if len(estimators) == 0 {
		return nil, fmt.Errorf("adaboost: no estimators")
	}
	if len(weights) != len(estimators) {
		return nil, fmt.Errorf("adaboost: %d estimators but %d weights", len(estimators), len(weights))
	}

	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("adaboost: invalid weight %v for estimator %d", w, i)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("adaboost: estimator weights sum to zero")
	}

	for i := range estimators {
		if err := estimators[i].Validate(nFeatures); err != nil {
			return nil, fmt.Errorf("adaboost: estimator %d: %w", i, err)
		}
	}

	return &AdaBoost{Estimators: estimators, Weights: weights, nFeatures: nFeatures}, nil
}

func (a *AdaBoost) Predict(x []float64) (float64, error) {
	if len(x) != a.nFeatures {
		return 0, fmt.Errorf("%w: expected %d features, got %d", ErrShapeMismatch, a.nFeatures, len(x))
	}

	type weighted struct {
		pred   float64
		weight float64
	}
	preds := make([]weighted, len(a.Estimators))
	total := 0.0
	for i := range a.Estimators {
		preds[i] = weighted{pred: a.Estimators[i].Predict(x), weight: a.Weights[i]}
		total += a.Weights[i]
	}

	sort.SliceStable(preds, func(i, j int) bool { return preds[i].pred < preds[j].pred })

	// first prediction whose cumulative weight reaches half the total
	half := 0.5 * total
	cdf := 0.0
	for _, p := range preds {
		cdf += p.weight
		if cdf >= half {
			return p.pred, nil
		}
	}
	return preds[len(preds)-1].pred, nil
}

// GradientBoosting is a least-squares gradient boosting ensemble:
// Init + LearningRate * sum of tree outputs.
type GradientBoosting struct {
	Estimators   []Tree
	Init         float64
	LearningRate float64
	nFeatures    int
}

func NewGradientBoosting(estimators []Tree, init, learningRate float64, nFeatures int) (*GradientBoosting, error) {
	if len(estimators) == 0 {
		return nil, fmt.Errorf("gradient boosting: no estimators")
	}
	if learningRate <= 0 || math.IsNaN(learningRate) || math.IsInf(learningRate, 0) {
		return nil, fmt.Errorf("gradient boosting: invalid learning rate %v", learningRate)
	}
	if math.IsNaN(init) || math.IsInf(init, 0) {
		return nil, fmt.Errorf("gradient boosting: invalid init value %v", init)
	}

	for i := range estimators {
		if err := estimators[i].Validate(nFeatures); err != nil {
			return nil, fmt.Errorf("gradient boosting: estimator %d: %w", i, err)
		}
	}

	return &GradientBoosting{Estimators: estimators, Init: init, LearningRate: learningRate, nFeatures: nFeatures}, nil
}

func (g *GradientBoosting) Predict(x []float64) (float64, error) {
	if len(x) != g.nFeatures {
		return 0, fmt.Errorf("%w: expected %d features, got %d", ErrShapeMismatch, g.nFeatures, len(x))
	}

	sum := 0.0
	for i := range g.Estimators {
		sum += g.Estimators[i].Predict(x)
	}
	return g.Init + g.LearningRate*sum, nil
}
