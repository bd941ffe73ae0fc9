package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// Node is one entry of a tree's flat node array. Node 0 is the root and
// children always sit after their parent.
type Node struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

// Tree is a single decision tree.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a random forest artifact. Its probability for a row is the
// mean of the leaf class distributions reached in each tree.
type Forest struct {
	Name       string              `json:"name"`
	Version    string              `json:"version"`
	Features   []string            `json:"features"`
	ClassNames []string            `json:"classes"`
	Categories map[string][]string `json:"categories"`
	Trees      []Tree              `json:"trees"`
}

// LoadForest reads and validates a forest artifact from disk.
func LoadForest(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadModel, err)
	}
	defer func() { _ = f.Close() }()
	return ParseForest(f)
}

// ParseForest decodes and validates a forest artifact.
func ParseForest(r io.Reader) (*Forest, error) {
	var forest Forest
	if err := json.NewDecoder(r).Decode(&forest); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLoadModel, err)
	}
	if err := forest.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadModel, err)
	}
	return &forest, nil
}

func (f *Forest) validate() error {
	if len(f.Features) == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidModel)
	}
	if len(f.ClassNames) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidModel)
	}
	for ti := range f.Trees {
		nodes := f.Trees[ti].Nodes
		if len(nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, ti)
		}
		for ni := range nodes {
			n := &nodes[ni]
			if n.IsLeaf {
				if err := normalizeLeaf(n, len(f.ClassNames)); err != nil {
					return fmt.Errorf("%w: tree %d node %d: %v", ErrInvalidModel, ti, ni, err)
				}
				continue
			}
			if n.FeatureIdx < 0 || n.FeatureIdx >= len(f.Features) {
				return fmt.Errorf("%w: tree %d node %d: feature_idx %d out of range", ErrInvalidModel, ti, ni, n.FeatureIdx)
			}
			for _, child := range []int{n.LeftChild, n.RightChild} {
				if child <= ni || child >= len(nodes) {
					return fmt.Errorf("%w: tree %d node %d: child %d out of range", ErrInvalidModel, ti, ni, child)
				}
			}
		}
	}
	return nil
}

func normalizeLeaf(n *Node, classes int) error {
	if len(n.Value) != classes {
		return fmt.Errorf("leaf has %d values for %d classes", len(n.Value), classes)
	}
	var sum float64
	for _, v := range n.Value {
		if v < 0 {
			return fmt.Errorf("negative leaf weight %v", v)
		}
		sum += v
	}
	if sum == 0 {
		return fmt.Errorf("leaf weights sum to zero")
	}
	for i := range n.Value {
		n.Value[i] /= sum
	}
	return nil
}

// Classes implements Classifier.
func (f *Forest) Classes() []string { return slices.Clone(f.ClassNames) }

// Info summarizes the artifact.
func (f *Forest) Info() Info {
	return Info{
		Name:     f.Name,
		Version:  f.Version,
		Classes:  f.Classes(),
		Features: slices.Clone(f.Features),
		Trees:    len(f.Trees),
	}
}

// PredictProba implements Classifier.
func (f *Forest) PredictProba(ctx context.Context, rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for ri, row := range rows {
		if len(row) != len(f.Features) {
			return nil, fmt.Errorf("%w: got %d values, want %d", ErrFeatureWidth, len(row), len(f.Features))
		}
		probs := make([]float64, len(f.ClassNames))
		for ti := range f.Trees {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			leaf := f.Trees[ti].leaf(row)
			for c, v := range leaf.Value {
				probs[c] += v
			}
		}
		for c := range probs {
			probs[c] /= float64(len(f.Trees))
		}
		out[ri] = probs
	}
	return out, nil
}

// leaf walks from the root; validation guarantees termination.
func (t *Tree) leaf(row []float64) *Node {
	idx := 0
	for {
		n := &t.Nodes[idx]
		if n.IsLeaf {
			return n
		}
		if row[n.FeatureIdx] <= n.Threshold {
			idx = n.LeftChild
		} else {
			idx = n.RightChild
		}
	}
}
