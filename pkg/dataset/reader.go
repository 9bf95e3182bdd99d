package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/errors"
	"github.com/cbme/epamerge/pkg/logging"
)

// Read loads an integrated dataset written by Write. The header row is
// authoritative: columns may appear in any order and extra columns are
// ignored, but a missing canonical column is a SchemaError because
// downstream consumers rely on the full contract.
func Read(ctx context.Context, path string) ([]epa.Record, error) {
	return read(ctx, path, Columns, "")
}

// ReadCurrentExport loads a current-system bulk export. The file has
// no source column; every record is tagged as current on ingestion.
func ReadCurrentExport(ctx context.Context, path string) ([]epa.Record, error) {
	return read(ctx, path, ExportColumns, epa.SourceCurrent)
}

// read streams the rows after the header. A malformed row is logged
// and skipped rather than failing the whole file; only a missing file
// or a header that lacks required columns is fatal.
func read(ctx context.Context, path string, required []string, tag epa.Source) ([]epa.Record, error) {
	logger := logging.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &errors.SchemaError{File: path, Missing: missing}
	}

	var records []epa.Record
	for row := 2; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().
				Err(errors.WrapParse(path, row, err)).
				Msg("Skipping malformed row")
			continue
		}
		rec := record(index, fields)
		if tag != "" {
			rec.Source = tag
		}
		records = append(records, rec)
	}
	return records, nil
}
