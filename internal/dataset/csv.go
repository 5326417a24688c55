package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadCSV loads data from a CSV file.
// labelCols specifies the indices of columns to be used as labels.
// All other columns are used as features.
// hasHeader skips the first line if true.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, labelCols, hasHeader)
}

// ReadCSV is LoadCSV on an already open reader.
func ReadCSV(r io.Reader, labelCols []int, hasHeader bool) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv file is empty")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, errors.New("csv file has no data rows")
	}

	numCols := len(records[0])
	isLabelCol := make(map[int]bool, len(labelCols))
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("label column %d out of range [0, %d)", col, numCols)
		}
		isLabelCol[col] = true
	}

	d := &Dataset{
		Samples: make([][]float32, 0, len(records)-startRow),
		Labels:  make([][]float32, 0, len(records)-startRow),
	}
	values := make([]float32, numCols)
	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		for j, valStr := range record {
			val, err := strconv.ParseFloat(valStr, 32)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			values[j] = float32(val)
		}

		sample := make([]float32, 0, numCols-len(isLabelCol))
		for j, v := range values {
			if !isLabelCol[j] {
				sample = append(sample, v)
			}
		}
		// Labels keep the order given in labelCols.
		label := make([]float32, len(labelCols))
		for k, col := range labelCols {
			label[k] = values[col]
		}

		d.Samples = append(d.Samples, sample)
		d.Labels = append(d.Labels, label)
	}
	return d, nil
}
