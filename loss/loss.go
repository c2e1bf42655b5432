// Package loss measures how well a reconstructed sample matches the
// original one. Model.Score averages a Losser over every sample.
package loss

import (
	"fmt"
	"math"
)

var lenMismatch string = "loss: length mismatch"

// Losser is an interface for a per-sample loss function.
// The loss is zero iff reconstruction == truth, and is always non-negative.
// A Losser will panic if len(reconstruction) != len(truth). The losser
// should not modify the slice values.
type Losser interface {
	Loss(reconstruction, truth []float64) float64
}

// ByName returns the Losser for one of "squared", "manhattan",
// "relative" or "logsquared". The empty string selects "squared".
func ByName(name string) (Losser, error) {
	switch name {
	case "", "squared":
		return SquaredDistance{}, nil
	case "manhattan":
		return ManhattanDistance{}, nil
	case "relative":
		return RelativeSquared(1), nil
	case "logsquared":
		return LogSquared{}, nil
	}
	return nil, fmt.Errorf("loss: unknown loss %q", name)
}

// SquaredDistance is the squared two-norm of (reconstruction - truth)
// divided by the length
type SquaredDistance struct{}

func (SquaredDistance) Loss(reconstruction, truth []float64) (loss float64) {
	if len(reconstruction) != len(truth) {
		panic(lenMismatch)
	}
	for i := range reconstruction {
		diff := reconstruction[i] - truth[i]
		loss += diff * diff
	}
	return loss / float64(len(reconstruction))
}

// ManhattanDistance is the one-norm of (reconstruction - truth) divided by
// the length
type ManhattanDistance struct{}

func (ManhattanDistance) Loss(reconstruction, truth []float64) (loss float64) {
	if len(reconstruction) != len(truth) {
		panic(lenMismatch)
	}
	for i, val := range reconstruction {
		loss += math.Abs(val - truth[i])
	}
	return loss / float64(len(reconstruction))
}

// RelativeSquared is the squared relative error with the value of
// RelativeSquared added in the denominator
type RelativeSquared float64

func (r RelativeSquared) Loss(reconstruction, truth []float64) (loss float64) {
	if len(reconstruction) != len(truth) {
		panic(lenMismatch)
	}
	for i, rec := range reconstruction {
		tr := truth[i]
		diffOverDenom := (rec - tr) / (math.Abs(tr) + float64(r))
		loss += diffOverDenom * diffOverDenom
	}
	return loss / float64(len(reconstruction))
}

// LogSquared uses log(1 + diff*diff) so that outlying samples aren't as important
type LogSquared struct{}

func (LogSquared) Loss(reconstruction, truth []float64) (loss float64) {
	if len(reconstruction) != len(truth) {
		panic(lenMismatch)
	}
	for i, rec := range reconstruction {
		diff := rec - truth[i]
		loss += math.Log1p(diff * diff)
	}
	return loss / float64(len(reconstruction))
}
