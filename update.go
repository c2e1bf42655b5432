package ksvd

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// updateDictionary performs one approximate K-SVD pass over the atoms of
// dict, rewriting dict and the matching columns of codes in place. It
// returns how many atoms were skipped because no sample used them.
//
// Atoms are visited in increasing index order. When atom j is updated the
// residual uses the already updated atoms 0..j-1 and the previous values of
// atoms j+1..k-1; any other order gives a different result.
func updateDictionary(data, dict, codes *mat.Dense) (skipped int, err error) {
	nAtoms, nFeatures := dict.Dims()
	saved := make([]float64, nFeatures)
	var active []int

	for j := 0; j < nAtoms; j++ {
		active = activeSet(codes, j, active[:0])
		if len(active) == 0 {
			skipped++
			continue
		}

		atom := dict.RawRowView(j)
		copy(saved, atom)
		for f := range atom {
			atom[f] = 0
		}

		// r = X[I,:] − Γ[I,:]·D with atom j removed from D.
		nActive := len(active)
		dataI := mat.NewDense(nActive, nFeatures, nil)
		codesI := mat.NewDense(nActive, nAtoms, nil)
		g := make([]float64, nActive)
		for t, i := range active {
			dataI.SetRow(t, data.RawRowView(i))
			codesI.SetRow(t, codes.RawRowView(i))
			g[t] = codes.At(i, j)
		}
		residual := mat.NewDense(nActive, nFeatures, nil)
		residual.Mul(codesI, dict)
		residual.Sub(dataI, residual)

		// d = rᵗ·g
		d := make([]float64, nFeatures)
		for t := range active {
			floats.AddScaled(d, g[t], residual.RawRowView(t))
		}
		if err := normalizeAtom(d, j, "update"); err != nil {
			copy(atom, saved)
			return skipped, err
		}

		// g' = r·d
		for t, i := range active {
			codes.Set(i, j, floats.Dot(residual.RawRowView(t), d))
		}
		copy(atom, d)
	}
	return skipped, nil
}

// activeSet appends to dst the samples with a nonzero coefficient for atom j.
func activeSet(codes *mat.Dense, j int, dst []int) []int {
	nSamples, _ := codes.Dims()
	for i := 0; i < nSamples; i++ {
		if codes.At(i, j) != 0 {
			dst = append(dst, i)
		}
	}
	return dst
}
