package main

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/scicov/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// readMatrix parses one sample per line. Values are separated by whitespace
// or commas; blank lines and lines starting with '#' are skipped.
func readMatrix(r io.Reader) (*mat.Dense, error) {
	var (
		data []float64
		rows int
		cols = -1
	)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if cols < 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, errors.Wrapf(errors.NewDimensionError("readMatrix", cols, len(fields), 1), "line %d", line)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "readMatrix")
	}
	if rows == 0 || cols == 0 {
		return nil, errors.NewModelError("readMatrix", "empty data", errors.ErrEmptyData)
	}
	return mat.NewDense(rows, cols, data), nil
}

func readMatrixFile(name string) (*mat.Dense, error) {
	is, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer is.Close()
	m, err := readMatrix(is)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return m, nil
}
