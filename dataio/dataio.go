// Package dataio reads and writes dense matrices as CSV, one sample per row.
// Lines starting with '#' are comments.
package dataio

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
)

// ReadCSV reads a matrix from r. Every record must have the same number of
// fields and every field must parse as a float64.
func ReadCSV(r io.Reader) (*mat.Dense, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var (
		data []float64
		cols int
		rows int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "dataio: reading csv")
		}
		if rows == 0 {
			cols = len(record)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				line, _ := reader.FieldPos(j)
				return nil, errors.Wrapf(err, "dataio: line %d field %d", line, j+1)
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, common.ErrNoData
	}
	return mat.NewDense(rows, cols, data), nil
}

// WriteCSV writes m to w with the shortest representation that reads back
// to the same float64.
func WriteCSV(w io.Writer, m mat.Matrix) error {
	rows, cols := m.Dims()
	writer := csv.NewWriter(w)
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := range record {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "dataio: writing csv")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "dataio: writing csv")
}

// ReadFile reads the CSV file at path.
func ReadFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataio")
	}
	defer f.Close()
	m, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return m, nil
}

// WriteFile writes m to a CSV file at path, replacing any existing file.
func WriteFile(path string, m mat.Matrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "dataio")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.Wrap(cerr, "dataio")
		}
	}()
	return WriteCSV(f, m)
}
