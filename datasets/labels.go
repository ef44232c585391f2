package datasets

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// LabelTable is the label column of a ground-truth CSV, loaded once and
// indexed both by row and by image id.
type LabelTable struct {
	// Path of the CSV the table was read from.
	Path string

	ids    []string
	labels []int
	index  map[string]int
}

// LoadLabelTable reads the CSV at path and keeps idColumn and labelColumn.
// Labels are cast to int (see parseLabel); a non numeric label or a repeated
// id is an error.
func LoadLabelTable(fsys afero.Fs, path, idColumn, labelColumn string) (*LabelTable, error) {
	df, err := readTable(fsys, path)
	if err != nil {
		return nil, err
	}

	ids, err := columnValues(df, idColumn)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading labels from %s", path)
	}
	raw, err := columnValues(df, labelColumn)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading labels from %s", path)
	}

	t := &LabelTable{
		Path:   path,
		ids:    ids,
		labels: make([]int, len(raw)),
		index:  make(map[string]int, len(ids)),
	}
	for row, v := range raw {
		label, err := parseLabel(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s row %d column %q", path, row, labelColumn)
		}
		t.labels[row] = label

		id := ids[row]
		if prev, ok := t.index[id]; ok {
			return nil, errors.Wrapf(ErrDuplicateID, "%s: id %q in rows %d and %d", path, id, prev, row)
		}
		t.index[id] = row
	}
	return t, nil
}

// Len returns the number of rows.
func (t *LabelTable) Len() int { return len(t.ids) }

// At returns the id and label of row i.
func (t *LabelTable) At(i int) (id string, label int) {
	return t.ids[i], t.labels[i]
}

// Lookup returns the label of the image with the given id.
func (t *LabelTable) Lookup(id string) (int, bool) {
	row, ok := t.index[id]
	if !ok {
		return 0, false
	}
	return t.labels[row], true
}

// Classes returns the distinct labels in ascending order.
func (t *LabelTable) Classes() []int {
	dist := t.Distribution()
	classes := make([]int, 0, len(dist))
	for label := range dist {
		classes = append(classes, label)
	}
	sort.Ints(classes)
	return classes
}

// Distribution returns the number of rows per label.
func (t *LabelTable) Distribution() map[int]int {
	dist := make(map[int]int)
	for _, label := range t.labels {
		dist[label]++
	}
	return dist
}
