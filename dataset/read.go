package dataset

import (
	"archive/zip"
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/extrame/xls"
	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/pml/persist"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
	"github.com/YuminosukeSato/pml/pkg/timer"
)

type readOptions struct {
	nrows  int
	sheet  string
	header int
}

// ReadOption configures ReadFrame.
type ReadOption func(*readOptions)

// WithNRows keeps only the first n data rows.
func WithNRows(n int) ReadOption { return func(o *readOptions) { o.nrows = n } }

// WithSheet selects a spreadsheet sheet by name; the first sheet is the
// default.
func WithSheet(name string) ReadOption { return func(o *readOptions) { o.sheet = name } }

// WithHeader sets the row holding column names; rows above it are skipped.
// A negative row means the file has no header.
func WithHeader(row int) ReadOption { return func(o *readOptions) { o.header = row } }

// ReadFrame loads file into a Frame, choosing the reader from its name:
// .gob, .pickle and their .gz forms are frames saved with SaveFrame, .xls
// and .xlsx are spreadsheets, .7z and .zip must hold exactly one delimited
// file, .gz is gzip compressed and anything else is read as delimited
// text. The separator is a tab when the name contains ".tsv" and a comma otherwise.
func ReadFrame(file string, opts ...ReadOption) (*Frame, error) {
	o := readOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	timer.Start("reading dataframe: " + file)
	frame, err := loadFrame(file, o)
	if err != nil {
		timer.Cancel()
		return nil, err
	}
	timer.Stop("done reading dataframe")
	log.GetLoggerWithName("dataset").Debug("frame loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, file,
		log.SamplesKey, frame.Nrow(),
		log.FeaturesKey, frame.Ncol(),
	)
	return frame, nil
}

func loadFrame(file string, o readOptions) (*Frame, error) {
	records, err := readRecords(file, o)
	if err != nil {
		return nil, err
	}
	records, err = applyLayout(file, records, o)
	if err != nil {
		return nil, err
	}
	frame, err := FromDataFrame(dataframe.LoadRecords(records, dataframe.HasHeader(o.header >= 0)))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", file)
	}
	return frame, nil
}

func separator(file string) rune {
	if strings.Contains(file, ".tsv") {
		return '\t'
	}
	return ','
}

func readRecords(file string, o readOptions) ([][]string, error) {
	switch {
	case strings.HasSuffix(file, ".pickle"), strings.HasSuffix(file, ".pickle.gz"),
		strings.HasSuffix(file, ".gob"), strings.HasSuffix(file, ".gob.gz"):
		var records [][]string
		if _, err := persist.Load(file, &records, persist.FailIfMissing()); err != nil {
			return nil, err
		}
		return records, nil
	case strings.HasSuffix(file, ".xlsx"):
		return readXLSX(file, o.sheet)
	case strings.HasSuffix(file, ".xls"):
		return readXLS(file, o.sheet)
	case strings.HasSuffix(file, ".7z"):
		return read7z(file, o)
	case strings.HasSuffix(file, ".zip"):
		return readZip(file, o)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", file)
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(file, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", file)
		}
		defer zr.Close()
		r = zr
	}
	return readDelimited(r, separator(file), limit(o))
}

// limit is the number of raw rows needed to serve o.nrows, or 0 for all.
func limit(o readOptions) int {
	if o.nrows <= 0 {
		return 0
	}
	return max(o.header, 0) + 1 + o.nrows
}

func readDelimited(r io.Reader, sep rune, maxRows int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for maxRows <= 0 || len(records) < maxRows {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading delimited rows")
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(file, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", file)
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q of %s", sheet, file)
	}
	return rows, nil
}

func readXLS(file, sheet string) ([][]string, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", file)
	}
	defer fh.Close()
	wb, err := xls.OpenReader(fh, "utf-8")
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}

	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s != nil && (sheet == "" || s.Name == sheet) {
			ws = s
			break
		}
	}
	if ws == nil {
		return nil, errors.NewUnsupportedFormatError(file, "no sheet named "+sheet)
	}

	var rows [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := xlsRow(ws, i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsRow returns nil for a row the sheet does not store; WorkSheet.Row
// dereferences the missing entry.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func read7z(file string, o readOptions) ([][]string, error) {
	r, err := sevenzip.OpenReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", file)
	}
	defer r.Close()

	var entries []*sevenzip.File
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			entries = append(entries, f)
		}
	}
	if len(entries) != 1 {
		return nil, errors.NewUnsupportedFormatError(file, "7z archives with multiple files not supported")
	}
	rc, err := entries[0].Open()
	if err != nil {
		return nil, errors.Wrapf(err, "extracting %s", entries[0].Name)
	}
	defer rc.Close()
	return readDelimited(rc, separator(file), limit(o))
}

func readZip(file string, o readOptions) ([][]string, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", file)
	}
	defer zr.Close()
	if len(zr.File) != 1 {
		return nil, errors.NewUnsupportedFormatError(file, "zip files with multiple files not supported")
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		return nil, errors.Wrapf(err, "extracting %s", zr.File[0].Name)
	}
	defer rc.Close()
	return readDelimited(rc, separator(file), limit(o))
}

// applyLayout drops rows above the header, truncates to nrows and pads
// ragged rows to a common width.
func applyLayout(file string, records [][]string, o readOptions) ([][]string, error) {
	if o.header > 0 {
		if o.header >= len(records) {
			return nil, errors.NewUnsupportedFormatError(file, "header row beyond end of file")
		}
		records = records[o.header:]
	}
	if o.nrows > 0 {
		keep := o.nrows
		if o.header >= 0 {
			keep++
		}
		if keep < len(records) {
			records = records[:keep]
		}
	}
	if len(records) == 0 || (o.header >= 0 && len(records) == 1) {
		return nil, errors.NewUnsupportedFormatError(file, "no data rows")
	}

	width := 0
	for _, r := range records {
		width = max(width, len(r))
	}
	for i, r := range records {
		if len(r) < width {
			records[i] = append(r, make([]string, width-len(r))...)
		}
	}
	return records, nil
}

// SaveFrame stores f so that ReadFrame can load it from a .gob or .pickle
// name. Bare names go under the configured pickle directory.
func SaveFrame(file string, f *Frame, force bool) error {
	return persist.Dump(file, f.Records(), force)
}
