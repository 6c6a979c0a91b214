package distance

import (
	"fmt"
	"route-optimizer/internal/domain"
)

type Pair struct {
	From, To domain.Coordinates
	Km       float64
}

// MatrixOracle serves distances from a precomputed pairwise table.
// Identical points are 0 apart; any other missing pair is an error.
type MatrixOracle struct {
	m map[string]float64
}

func NewMatrixOracle(pairs []Pair) *MatrixOracle {
	m := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		m[pairKey(p.From, p.To)] = p.Km
	}
	return &MatrixOracle{m: m}
}

func (o *MatrixOracle) Distance(a, b domain.Coordinates) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	ka, kb := a.Key(), b.Key()
	if ka == kb {
		return 0, nil
	}

	d, ok := o.m[ka+"|"+kb]
	if !ok {
		return 0, fmt.Errorf("missing pair %s -> %s", ka, kb)
	}
	return d, nil
}

// Len returns the number of stored pairs.
func (o *MatrixOracle) Len() int { return len(o.m) }

func pairKey(a, b domain.Coordinates) string { return a.Key() + "|" + b.Key() }
