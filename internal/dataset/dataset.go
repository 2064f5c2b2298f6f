// Package dataset holds labelled 2D samples that feed DataSource nodes.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Point is one labelled sample.
type Point struct {
	X, Y  float64
	Label float64
}

// Features returns the sample in DataSource slot order: x, y, label.
func (p Point) Features() []float64 {
	return []float64{p.X, p.Y, p.Label}
}

// Set is an ordered list of samples with a current-sample cursor.
type Set struct {
	points []Point
	cursor int
}

// New creates a set over points.
func New(points []Point) *Set {
	return &Set{points: points}
}

// Len returns the number of samples.
func (s *Set) Len() int { return len(s.points) }

// Points returns the samples. The slice must not be modified.
func (s *Set) Points() []Point { return s.points }

// Cursor returns the index of the current sample.
func (s *Set) Cursor() int { return s.cursor }

// SetCursor moves the cursor, clamped to the valid rows.
func (s *Set) SetCursor(i int) {
	switch {
	case i < 0 || len(s.points) == 0:
		s.cursor = 0
	case i >= len(s.points):
		s.cursor = len(s.points) - 1
	default:
		s.cursor = i
	}
}

// Advance moves to the next sample, wrapping to the first after the last.
func (s *Set) Advance() {
	if len(s.points) == 0 {
		return
	}
	s.cursor = (s.cursor + 1) % len(s.points)
}

// Current returns the features of the current sample, or nil for an empty
// set.
func (s *Set) Current() []float64 {
	if len(s.points) == 0 {
		return nil
	}
	return s.points[s.cursor].Features()
}

// Read parses x,y,label rows. Rows that do not parse, such as a header, are
// skipped.
func Read(r io.Reader) (*Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []Point
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		if p, ok := parseRow(rec); ok {
			points = append(points, p)
		}
	}
	return New(points), nil
}

// Load reads a CSV dataset from path.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	defer f.Close()
	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// Write emits the set as CSV with an X1,X2,y header.
func (s *Set) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"X1", "X2", "y"}); err != nil {
		return err
	}
	for _, p := range s.points {
		row := []string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
			strconv.FormatFloat(p.Label, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRow(rec []string) (Point, bool) {
	if len(rec) < 3 {
		return Point{}, false
	}
	var vals [3]float64
	for i := range vals {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return Point{}, false
		}
		vals[i] = v
	}
	return Point{X: vals[0], Y: vals[1], Label: vals[2]}, true
}
