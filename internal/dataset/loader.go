package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"fraudpipe/internal/common"

	"github.com/rs/zerolog/log"
)

// Loader reads a delimited tabular file into a Dataset exactly once per
// process. The source file is large and immutable for the process lifetime,
// so repeated Load calls return the cached Dataset without re-reading.
//
// Expected layout: header row, first column an identifier/time field that is
// discarded, last column the integer class label (0 legitimate, 1 fraud),
// every column in between a numeric feature.
type Loader struct {
	path string

	once sync.Once
	ds   Dataset
	err  error
}

// NewLoader creates a loader for the given CSV path. No I/O happens until
// the first Load call.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the backing file path.
func (l *Loader) Path() string {
	return l.path
}

// Load returns the dataset, reading the file on the first call only.
// A malformed cell anywhere in the file fails the whole load; no partial
// dataset is ever returned.
func (l *Loader) Load() (Dataset, error) {
	l.once.Do(func() {
		l.ds, l.err = ReadCSV(l.path)
	})
	return l.ds, l.err
}

// ReadCSV performs a single uncached read of the file. Most callers want
// Loader.Load instead.
func ReadCSV(path string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 columns [id, features..., label], got %d",
			common.ErrParse, len(header))
	}
	featureDim := len(header) - 2

	var (
		ds    Dataset
		fraud int
		row   = 1
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", common.ErrParse, row, err)
		}
		row++

		// Feature columns sit strictly between the identifier and the label.
		features := make([]float64, featureDim)
		for i := 0; i < featureDim; i++ {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", common.ErrParse, row, header[i+1], err)
			}
			features[i] = v
		}

		labelCol := record[len(record)-1]
		class, err := strconv.Atoi(labelCol)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d label %q: %v", common.ErrParse, row, labelCol, err)
		}

		var label []float64
		switch class {
		case 0:
			label = LegitLabel()
		case 1:
			label = FraudLabel()
			fraud++
		default:
			return nil, fmt.Errorf("%w: row %d label %d: want 0 or 1", common.ErrParse, row, class)
		}

		ds = append(ds, Record{Features: features, Label: label})
	}

	if len(ds) == 0 {
		return nil, fmt.Errorf("%w: no data rows in %s", common.ErrParse, path)
	}

	log.Info().
		Str("file", path).
		Int("records", len(ds)).
		Int("features", featureDim).
		Int("fraud", fraud).
		Int("legitimate", len(ds)-fraud).
		Msg("Dataset loaded")

	return ds, nil
}
