// Package dataset loads the IMDB top-1000 CSV into memory.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Load reads the dataset at path. A missing file or a missing required
// column is an error; there is no partial load.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	records, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	return &Table{
		Path:     path,
		Checksum: hex.EncodeToString(sum[:]),
		Records:  records,
	}, nil
}

// Parse decodes CSV rows from r. The first row must be the header.
func Parse(r io.Reader) ([]MovieRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // the header decides; short rows are padded below

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var records []MovieRecord
	for row := 0; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		get := func(name string) string {
			i := cols[name]
			if i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		rating, err := parseFloat(get("IMDB_Rating"))
		if err != nil {
			return nil, fmt.Errorf("row %d: IMDB_Rating: %w", row, err)
		}
		votes, err := parseInt(get("No_of_Votes"))
		if err != nil {
			return nil, fmt.Errorf("row %d: No_of_Votes: %w", row, err)
		}

		records = append(records, MovieRecord{
			Row:         row,
			Title:       get("Series_Title"),
			Year:        get("Released_Year"),
			Certificate: get("Certificate"),
			Runtime:     get("Runtime"),
			Genre:       get("Genre"),
			Rating:      rating,
			MetaScore:   get("Meta_score"),
			Director:    get("Director"),
			Stars:       [4]string{get("Star1"), get("Star2"), get("Star3"), get("Star4")},
			Votes:       votes,
			Gross:       get("Gross"),
			Overview:    get("Overview"),
		})
	}

	return records, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
