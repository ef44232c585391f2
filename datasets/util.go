package datasets

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// readTable loads a whole CSV file into a dataframe. Every column is read as
// a string so image ids such as "0001" keep their leading zeros; numeric
// columns are parsed by the caller. No cell is treated as NaN. A file with a
// header and no rows gives an empty frame with that header.
func readTable(fsys afero.Fs, path string) (dataframe.DataFrame, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "failed to open CSV %s", path)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		if header, ok := headerOnly(data); ok {
			df = emptyTable(header)
		}
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(df.Err, "failed to parse CSV %s", path)
	}
	return df, nil
}

// headerOnly reports whether data holds a header line and nothing else.
func headerOnly(data []byte) ([]string, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err != nil || len(header) == 0 {
		return nil, false
	}
	if _, err := r.Read(); err != io.EOF {
		return nil, false
	}
	return header, true
}

// emptyTable builds a zero-row frame of string columns.
func emptyTable(header []string) dataframe.DataFrame {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(cols...)
}

// findColumn returns the header name matching column, first exactly and then
// ignoring case and surrounding spaces.
func findColumn(df dataframe.DataFrame, column string) (string, error) {
	names := df.Names()
	for _, name := range names {
		if name == column {
			return name, nil
		}
	}
	want := strings.TrimSpace(strings.ToLower(column))
	for _, name := range names {
		if strings.TrimSpace(strings.ToLower(name)) == want {
			return name, nil
		}
	}
	return "", errors.Wrapf(ErrColumnNotFound, "column %q (have %v)", column, names)
}

// columnValues returns the raw values of column in row order.
func columnValues(df dataframe.DataFrame, column string) ([]string, error) {
	name, err := findColumn(df, column)
	if err != nil {
		return nil, err
	}
	col := df.Col(name)
	if col.Err != nil {
		return nil, errors.Wrapf(col.Err, "failed to read column %q", name)
	}
	values := col.Records()
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return values, nil
}

// parseLabel converts a label cell to an integer. Floating point values are
// truncated toward zero, so "1.0" becomes 1.
func parseLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(ErrBadLabel, "empty value")
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrBadLabel, "value %q", s)
	}
	return int(v), nil
}

// ImageID returns the image identifier of a path: its base name without
// extension.
func ImageID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FindCSVInDir lists the CSV files directly inside dir, sorted by name.
func FindCSVInDir(fsys afero.Fs, dir string) ([]string, error) {
	matches, err := afero.Glob(fsys, filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.Errorf("no CSV files found in %s", dir)
	}
	return matches, nil
}
