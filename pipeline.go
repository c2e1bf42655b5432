package ksvd

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
	"github.com/reggo/ksvd/loss"
	"github.com/reggo/ksvd/scale"
)

// Pipeline scales every feature before handing data to a Model. The scale is
// set from the training data unless the Scaler already has one.
type Pipeline struct {
	Scaler scale.Scaler
	Model  *Model
}

// NewPipeline returns a Pipeline. A nil scaler means no scaling.
func NewPipeline(scaler scale.Scaler, model *Model) *Pipeline {
	if scaler == nil {
		scaler = &scale.None{}
	}
	return &Pipeline{Scaler: scaler, Model: model}
}

// Fit scales a copy of data and fits the model on it. data is not modified.
func (p *Pipeline) Fit(data mat.Matrix) (*Pipeline, error) {
	if err := common.VerifyData(data); err != nil {
		return nil, err
	}
	scaled := mat.DenseCopyOf(data)
	if !p.Scaler.IsScaled() {
		if err := p.Scaler.SetScale(scaled); err != nil {
			// A uniform feature still has a usable scale.
			if _, ok := err.(*scale.UniformDimension); !ok {
				return nil, err
			}
		}
	}
	if err := scale.ScaleData(p.Scaler, scaled); err != nil {
		return nil, err
	}
	if _, err := p.Model.Fit(scaled); err != nil {
		return nil, err
	}
	return p, nil
}

// Transform scales a copy of data and returns its codes.
func (p *Pipeline) Transform(data mat.Matrix) (*mat.Dense, error) {
	scaled, err := p.scaled(data)
	if err != nil {
		return nil, err
	}
	return p.Model.Transform(scaled)
}

// InverseTransform reconstructs samples from their codes in the original,
// unscaled feature space.
func (p *Pipeline) InverseTransform(codes mat.Matrix) (*mat.Dense, error) {
	if !p.Scaler.IsScaled() {
		return nil, common.ErrNotFitted
	}
	rec, err := p.Model.InverseTransform(codes)
	if err != nil {
		return nil, err
	}
	if err := scale.UnscaleData(p.Scaler, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Score returns the model score of the scaled data, so losses are measured
// in the space the dictionary was learned in.
func (p *Pipeline) Score(data mat.Matrix, l loss.Losser) (float64, error) {
	scaled, err := p.scaled(data)
	if err != nil {
		return 0, err
	}
	return p.Model.Score(scaled, l)
}

func (p *Pipeline) scaled(data mat.Matrix) (*mat.Dense, error) {
	if err := common.VerifyData(data); err != nil {
		return nil, err
	}
	if !p.Scaler.IsScaled() {
		return nil, common.ErrNotFitted
	}
	if _, nFeatures := data.Dims(); nFeatures != p.Scaler.Dimensions() {
		return nil, &common.FeatureMismatch{Want: p.Scaler.Dimensions(), Got: nFeatures}
	}
	scaled := mat.DenseCopyOf(data)
	if err := scale.ScaleData(p.Scaler, scaled); err != nil {
		return nil, err
	}
	return scaled, nil
}

// NumComponents returns the number of atoms of the model.
func (p *Pipeline) NumComponents() int {
	return p.Model.NumComponents()
}

// NumFeatures returns the number of features expected by Transform.
func (p *Pipeline) NumFeatures() int {
	return p.Model.NumFeatures()
}

type pipelineMarshal struct {
	Scaler common.InterfaceMarshaler
	Model  *Model
}

func (p *Pipeline) MarshalJSON() ([]byte, error) {
	return json.Marshal(pipelineMarshal{
		Scaler: common.InterfaceMarshaler{I: p.Scaler},
		Model:  p.Model,
	})
}

func (p *Pipeline) UnmarshalJSON(data []byte) error {
	var v pipelineMarshal
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	scaler, ok := v.Scaler.I.(scale.Scaler)
	if !ok {
		return fmt.Errorf("ksvd: pipeline scaler has type %T", v.Scaler.I)
	}
	if v.Model == nil {
		return fmt.Errorf("ksvd: pipeline has no model")
	}
	p.Scaler = scaler
	p.Model = v.Model
	return nil
}
