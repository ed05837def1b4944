package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ReadCSV parses a prepared table with a header row. treatmentCol and
// outcomeCol name the treatment and outcome columns; every other column is a
// numeric feature, already scaled and encoded.
func ReadCSV(r io.Reader, treatmentCol, outcomeCol string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %w", ErrEmpty)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	tIdx, yIdx := -1, -1
	var names []string
	var featureIdx []int
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch h {
		case treatmentCol:
			tIdx = i
		case outcomeCol:
			yIdx = i
		default:
			names = append(names, h)
			featureIdx = append(featureIdx, i)
		}
	}
	if tIdx < 0 {
		return nil, fmt.Errorf("treatment column %q not found in header", treatmentCol)
	}
	if yIdx < 0 {
		return nil, fmt.Errorf("outcome column %q not found in header", outcomeCol)
	}
	if len(featureIdx) == 0 {
		return nil, fmt.Errorf("no feature columns besides %q and %q", treatmentCol, outcomeCol)
	}

	var data, t, y []float64
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		parse := func(col int) (float64, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return 0, fmt.Errorf("line %d, column %q: %w", line, header[col], err)
			}
			return v, nil
		}
		tv, err := parse(tIdx)
		if err != nil {
			return nil, err
		}
		yv, err := parse(yIdx)
		if err != nil {
			return nil, err
		}
		for _, col := range featureIdx {
			v, err := parse(col)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
		}
		t = append(t, tv)
		y = append(y, yv)
	}
	if len(t) == 0 {
		return nil, ErrEmpty
	}

	return NewNamed(names, mat.NewDense(len(t), len(featureIdx), data), t, y)
}

// WriteCSV writes d with a header row: the feature columns followed by the
// treatment and outcome columns. Unnamed features are written as x1..xp.
func WriteCSV(w io.Writer, d *Dataset, treatmentCol, outcomeCol string) error {
	p := d.Features()
	header := make([]string, 0, p+2)
	if d.columns != nil {
		header = append(header, d.columns...)
	} else {
		for j := 1; j <= p; j++ {
			header = append(header, "x"+strconv.Itoa(j))
		}
	}
	header = append(header, treatmentCol, outcomeCol)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, p+2)
	for i := 0; i < d.Len(); i++ {
		for j, v := range d.x.RawRowView(i) {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		record[p] = strconv.FormatFloat(d.t[i], 'g', -1, 64)
		record[p+1] = strconv.FormatFloat(d.y[i], 'g', -1, 64)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write unit %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
