package ksvd

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
)

func TestUpdateDictionarySingleSample(t *testing.T) {
	data := mat.NewDense(1, 2, []float64{3, 4})
	codes := mat.NewDense(1, 2, []float64{2, 0})
	dict := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	skipped, err := updateDictionary(data, dict, codes)
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.True(t, mat.EqualApprox(mat.NewDense(2, 2, []float64{0.6, 0.8, 0, 1}), dict, 1e-12))
	require.True(t, mat.EqualApprox(mat.NewDense(1, 2, []float64{5, 0}), codes, 1e-12))
}

func TestUpdateDictionaryDegenerateDirection(t *testing.T) {
	data := mat.NewDense(1, 2, []float64{0, 0})
	codes := mat.NewDense(1, 2, []float64{1, 0})
	dict := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	_, err := updateDictionary(data, dict, codes)
	var da *common.DegenerateAtom
	require.True(t, errors.As(err, &da))
	require.Equal(t, common.DegenerateAtom{Atom: 0, Stage: "update"}, *da)
	// The failing atom is left as it was.
	require.Equal(t, []float64{1, 0}, dict.RawRowView(0))
}

func TestNormalizeRowsDegenerate(t *testing.T) {
	dict := mat.NewDense(2, 2, []float64{3, 4, 0, 0})
	err := normalizeRows(dict, "init")
	var da *common.DegenerateAtom
	require.True(t, errors.As(err, &da))
	require.Equal(t, 1, da.Atom)
	require.Equal(t, "init", da.Stage)

	dict = mat.NewDense(1, 2, []float64{math.NaN(), 1})
	require.ErrorIs(t, normalizeRows(dict, "init"), common.ErrDegenerate)
}

// naiveUpdate is a slice based transcription of the sequential atom update.
func naiveUpdate(x, d, g [][]float64) {
	for j := range d {
		var active []int
		for i := range g {
			if g[i][j] != 0 {
				active = append(active, i)
			}
		}
		if len(active) == 0 {
			continue
		}
		for f := range d[j] {
			d[j][f] = 0
		}
		r := make([][]float64, len(active))
		for t, i := range active {
			r[t] = make([]float64, len(x[i]))
			for f := range x[i] {
				v := x[i][f]
				for a := range d {
					v -= g[i][a] * d[a][f]
				}
				r[t][f] = v
			}
		}
		atom := make([]float64, len(d[j]))
		for t, i := range active {
			for f := range atom {
				atom[f] += g[i][j] * r[t][f]
			}
		}
		var norm float64
		for _, v := range atom {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		for f := range atom {
			atom[f] /= norm
		}
		for t, i := range active {
			var dot float64
			for f := range atom {
				dot += r[t][f] * atom[f]
			}
			g[i][j] = dot
		}
		d[j] = atom
	}
}

func toRows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}
	return rows
}

func TestUpdateDictionaryMatchesSequentialUpdate(t *testing.T) {
	rnd := rand.New(rand.NewSource(20))
	data := randomDense(rnd, 12, 5)
	dict := randomDense(rnd, 4, 5)
	require.NoError(t, normalizeRows(dict, "init"))
	codes := randomDense(rnd, 12, 4)
	// Leave atom 2 unused and thin out the rest.
	for i := 0; i < 12; i++ {
		codes.Set(i, 2, 0)
		if i%3 == 0 {
			codes.Set(i, 1, 0)
		}
	}

	x, d, g := toRows(data), toRows(dict), toRows(codes)
	naiveUpdate(x, d, g)

	skipped, err := updateDictionary(data, dict, codes)
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	for j := range d {
		require.InDeltaSlice(t, d[j], dict.RawRowView(j), 1e-12, "atom %d", j)
	}
	for i := range g {
		require.InDeltaSlice(t, g[i], codes.RawRowView(i), 1e-12, "sample %d", i)
	}
	// Inactive coefficients stay zero.
	for i := 0; i < 12; i++ {
		require.Zero(t, codes.At(i, 2))
		if i%3 == 0 {
			require.Zero(t, codes.At(i, 1))
		}
	}
}

func TestUpdateDictionaryDoesNotIncreaseError(t *testing.T) {
	rnd := rand.New(rand.NewSource(21))
	data := randomDense(rnd, 15, 6)
	dict := randomDense(rnd, 3, 6)
	require.NoError(t, normalizeRows(dict, "init"))
	codes := randomDense(rnd, 15, 3)

	before := reconstructionError(data, codes, dict)
	_, err := updateDictionary(data, dict, codes)
	require.NoError(t, err)
	after := reconstructionError(data, codes, dict)
	require.LessOrEqual(t, after, before)
}
