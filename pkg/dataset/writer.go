package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/errors"
)

// backupTimestamp is the layout of backup file suffixes.
const backupTimestamp = "20060102_150405"

// writeOptions configures Write.
type writeOptions struct {
	backup bool
	now    func() time.Time
}

// WriteOption is a function that configures a Write call.
type WriteOption func(*writeOptions)

// WithBackup copies an existing output file to
// <path>.backup_<timestamp> before it is replaced.
func WithBackup(enabled bool) WriteOption {
	return func(o *writeOptions) {
		o.backup = enabled
	}
}

// withClock overrides the backup timestamp clock in tests.
func withClock(now func() time.Time) WriteOption {
	return func(o *writeOptions) {
		o.now = now
	}
}

// Write stores records as the integrated dataset at path: canonical
// column order, rows sorted by event date, UTF-8 with BOM. The file is
// written to a temporary sibling and renamed into place, so a failure
// mid-write never leaves a truncated dataset behind.
func Write(path string, records []epa.Record, opts ...WriteOption) error {
	options := &writeOptions{now: time.Now}
	for _, opt := range opts {
		opt(options)
	}

	if options.backup {
		if err := backup(path, options.now()); err != nil {
			return err
		}
	}

	sorted := make([]epa.Record, len(records))
	copy(sorted, records)
	sortByEventDate(sorted)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".epamerge-*.csv")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer os.Remove(tmp.Name())

	// BOM first so Excel detects the encoding of the Chinese headers.
	encoder := transform.NewWriter(tmp, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(encoder)

	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return errors.WrapIO("write", path, err)
	}
	for _, rec := range sorted {
		if err := w.Write(row(rec)); err != nil {
			tmp.Close()
			return errors.WrapIO("write", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := encoder.Close(); err != nil {
		tmp.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("write", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// backup copies the current file at path, if any, to a timestamped
// sibling.
func backup(path string, now time.Time) error {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.WrapIO("backup", path, err)
	}
	defer src.Close()

	backupPath := path + ".backup_" + now.Format(backupTimestamp)
	dst, err := os.Create(backupPath)
	if err != nil {
		return errors.WrapIO("backup", backupPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.WrapIO("backup", backupPath, err)
	}
	return dst.Close()
}

// sortByEventDate orders records chronologically, keeping input order
// for ties and pushing unparsable dates to the end.
func sortByEventDate(records []epa.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		di, iok := epa.ParseEventDate(records[i].EventDate)
		dj, jok := epa.ParseEventDate(records[j].EventDate)
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return di.Before(dj)
	})
}
