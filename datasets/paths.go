package datasets

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ImageExt is the extension appended to every image id read from a CSV.
const ImageExt = ".jpg"

// MakeDatapathList reads <dataDir>/<csvFile> and returns one path per row,
// <dataDir>/<imageDir>/<id>.jpg, where id is the value of idColumn. Rows keep
// the CSV order. Neither existence of the files nor uniqueness of the ids is
// checked here.
func MakeDatapathList(fsys afero.Fs, dataDir, csvFile, idColumn, imageDir string) ([]string, error) {
	csvPath := filepath.Join(dataDir, csvFile)
	df, err := readTable(fsys, csvPath)
	if err != nil {
		return nil, err
	}

	ids, err := columnValues(df, idColumn)
	if err != nil {
		return nil, errors.WithMessagef(err, "building path list from %s", csvPath)
	}

	root := filepath.Join(dataDir, imageDir)
	paths := make([]string, len(ids))
	for i, id := range ids {
		paths[i] = filepath.Join(root, id+ImageExt)
	}
	return paths, nil
}
