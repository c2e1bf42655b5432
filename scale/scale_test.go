package scale

import (
	"bytes"
	"encoding/gob"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func flatten(data [][]float64) *mat.Dense {
	nSamples := len(data)
	nDim := len(data[0])
	m := mat.NewDense(nSamples, nDim, nil)
	for i := range data {
		if len(data[i]) != nDim {
			panic("bad flatten")
		}
		m.SetRow(i, data[i])
	}
	return m
}

func testGob(s Scaler, sdecode Scaler, t *testing.T) {
	w := new(bytes.Buffer)
	encoder := gob.NewEncoder(w)
	err := encoder.Encode(s)
	if err != nil {
		t.Error(err)
	}

	b := w.Bytes()
	r := bytes.NewBuffer(b)
	decoder := gob.NewDecoder(r)
	err = decoder.Decode(sdecode)
	if err != nil {
		t.Error(err)
	}
	isequal := reflect.DeepEqual(s, sdecode)
	if !isequal {
		t.Errorf("reflect DeepEqual doesn't match")
	}
}

func testScaling(t *testing.T, u Scaler, data *mat.Dense, scaledData *mat.Dense, name string) {
	origData := mat.DenseCopyOf(data)

	err := ScaleData(u, data)
	if err != nil {
		t.Errorf("Error found in ScaleData for case " + name + ": " + err.Error())
	}
	if !mat.EqualApprox(data, scaledData, 1e-14) {
		t.Errorf("Improper scaling for case"+name+". Expected: %v, Found: %v", scaledData, data)
	}

	err = UnscaleData(u, data)
	if err != nil {
		t.Errorf("Error found in UnscaleData for case " + name + ": " + err.Error())
	}

	if !mat.EqualApprox(data, origData, 1e-14) {
		t.Errorf("Improper unscaling for case"+name+". Expected: %v, Found: %v", origData, data)
	}
}

func testLinear(t *testing.T, kind linearTest) {
	u := &Linear{}

	data := flatten(kind.data)
	err := u.SetScale(data)

	if err != nil {
		if !kind.eqDim {
			t.Errorf("Error where there shouldn't be for case " + kind.name + ": " + err.Error())
		}
	}
	if !floats.EqualApprox(u.Min, kind.min, 1e-14) {
		t.Errorf("Min doesn't match for case " + kind.name)
	}
	if !floats.EqualApprox(u.Max, kind.max, 1e-14) {
		t.Errorf("Max doesn't match for case " + kind.name)
	}
	scaledData := flatten(kind.scaledData)
	testScaling(t, u, data, scaledData, kind.name)
	u2 := &Linear{}
	testGob(u, u2, t)
}

type linearTest struct {
	data       [][]float64
	scaledData [][]float64
	min        []float64
	max        []float64
	name       string
	eqDim      bool
}

func TestLinear(t *testing.T) {
	cases := []linearTest{
		{
			data: [][]float64{
				{1},
				{2},
				{-3},
				{-4},
			},
			scaledData: [][]float64{
				{5.0 / 6.0},
				{6.0 / 6.0},
				{1.0 / 6.0},
				{0.0 / 6.0},
			},
			min:  []float64{-4},
			max:  []float64{2},
			name: "OneD",
		},
		{
			data: [][]float64{
				{1, 4},
				{2, 9},
				{-3, 12},
				{-4, 15},
			},
			scaledData: [][]float64{
				{5.0 / 6.0, 0},
				{6.0 / 6.0, 5.0 / 11},
				{1.0 / 6.0, 8.0 / 11},
				{0.0 / 6.0, 1},
			},
			min:  []float64{-4, 4},
			max:  []float64{2, 15},
			name: "TwoD",
		},
		{
			data: [][]float64{
				{1, 4},
				{2, 4},
				{-3, 4},
				{-4, 4},
			},
			scaledData: [][]float64{
				{5.0 / 6.0, 0.5},
				{6.0 / 6.0, 0.5},
				{1.0 / 6.0, 0.5},
				{0.0 / 6.0, 0.5},
			},
			min:   []float64{-4, 3.5},
			max:   []float64{2, 4.5},
			name:  "EqDim",
			eqDim: true,
		},
	}
	for i := range cases {
		testLinear(t, cases[i])
	}
}

type normalTest struct {
	data       [][]float64
	scaledData [][]float64
	mu         []float64
	sigma      []float64
	name       string
	eqDim      bool
}

func testNormal(t *testing.T, kind normalTest) {
	u := &Normal{}
	data := flatten(kind.data)
	err := u.SetScale(data)

	if err != nil {
		if !kind.eqDim {
			t.Errorf("Error where there shouldn't be for case " + kind.name + ": " + err.Error())
		}
	}
	if !floats.EqualApprox(u.Mu, kind.mu, 1e-14) {
		t.Errorf("Mu doesn't match for case "+kind.name+". Expected: %v, Found: %v", kind.mu, u.Mu)
	}
	if !floats.EqualApprox(u.Sigma, kind.sigma, 1e-14) {
		t.Errorf("Sigma doesn't match for case "+kind.name+". Expected: %v, Found: %v", kind.sigma, u.Sigma)
	}
	scaledData := flatten(kind.scaledData)
	testScaling(t, u, data, scaledData, kind.name)

	u2 := &Normal{}
	testGob(u, u2, t)
}

func TestNormal(t *testing.T) {
	cases := []normalTest{
		{
			data: [][]float64{
				{1},
				{2},
				{-3},
				{-4},
			},
			scaledData: [][]float64{
				{2 / math.Sqrt(6.5)},
				{3 / math.Sqrt(6.5)},
				{-2 / math.Sqrt(6.5)},
				{-3 / math.Sqrt(6.5)},
			},
			mu:    []float64{-1},
			sigma: []float64{math.Sqrt(6.5)},
			name:  "OneD",
		},

		{
			data: [][]float64{
				{1, 4},
				{2, 9},
				{-3, 12},
				{-4, 15},
			},
			scaledData: [][]float64{
				{2 / math.Sqrt(6.5), -6 / math.Sqrt(16.5)},
				{3 / math.Sqrt(6.5), -1 / math.Sqrt(16.5)},
				{-2 / math.Sqrt(6.5), 2 / math.Sqrt(16.5)},
				{-3 / math.Sqrt(6.5), 5 / math.Sqrt(16.5)},
			},
			mu:    []float64{-1, 10},
			sigma: []float64{math.Sqrt(6.5), math.Sqrt(16.5)},
			name:  "TwoD",
		},

		{
			data: [][]float64{
				{1, 4},
				{2, 4},
				{-3, 4},
				{-4, 4},
			},
			scaledData: [][]float64{
				{2 / math.Sqrt(6.5), 0},
				{3 / math.Sqrt(6.5), 0},
				{-2 / math.Sqrt(6.5), 0},
				{-3 / math.Sqrt(6.5), 0},
			},
			mu:    []float64{-1, 4},
			sigma: []float64{math.Sqrt(6.5), 1},
			name:  "EqDim",
			eqDim: true,
		},
	}
	for i := range cases {
		testNormal(t, cases[i])
	}
}

func TestUniformDimensionReported(t *testing.T) {
	data := flatten([][]float64{{1, 4}, {2, 4}, {3, 4}})
	for _, s := range []Scaler{&Linear{}, &Normal{}} {
		err := s.SetScale(data)
		unif, ok := err.(*UniformDimension)
		if !ok {
			t.Errorf("%T: expected *UniformDimension, found %v", s, err)
			continue
		}
		if !reflect.DeepEqual(unif.Dims, []int{1}) {
			t.Errorf("%T: wrong uniform dimensions %v", s, unif.Dims)
		}
		if !s.IsScaled() {
			t.Errorf("%T: scale not set after uniform dimension", s)
		}
	}
}

func TestTooFewSamples(t *testing.T) {
	data := flatten([][]float64{{1, 2}})
	for _, s := range []Scaler{&Linear{}, &Normal{}} {
		if err := s.SetScale(data); err != ErrTooFewSamples {
			t.Errorf("%T: expected ErrTooFewSamples, found %v", s, err)
		}
	}
	n := &None{}
	if err := n.SetScale(data); err != nil {
		t.Errorf("None: unexpected error %v", err)
	}
	if n.Dimensions() != 2 {
		t.Errorf("None: expected 2 dimensions, found %v", n.Dimensions())
	}
}

func TestScaleDataLengthMismatch(t *testing.T) {
	l := &Linear{}
	if err := l.SetScale(flatten([][]float64{{1, 2}, {3, 5}})); err != nil {
		t.Fatal(err)
	}
	err := ScaleData(l, flatten([][]float64{{1, 2, 3}, {4, 5, 6}}))
	list, ok := err.(ErrorList)
	if !ok || len(list) != 2 {
		t.Fatalf("expected two row errors, found %v", err)
	}
	for _, e := range list {
		if _, ok := e.Err.(UnequalLength); !ok {
			t.Errorf("row %v: expected UnequalLength, found %v", e.Idx, e.Err)
		}
	}
}

func TestByName(t *testing.T) {
	for _, test := range []struct {
		name string
		want Scaler
	}{
		{name: "", want: &None{}},
		{name: "none", want: &None{}},
		{name: "linear", want: &Linear{}},
		{name: "normal", want: &Normal{}},
	} {
		s, err := ByName(test.name)
		if err != nil {
			t.Errorf("%q: unexpected error %v", test.name, err)
			continue
		}
		if reflect.TypeOf(s) != reflect.TypeOf(test.want) {
			t.Errorf("%q: expected %T, found %T", test.name, test.want, s)
		}
	}
	if _, err := ByName("minmax"); err == nil {
		t.Errorf("expected error for unknown scaler")
	}
}
