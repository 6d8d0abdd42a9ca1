// Package dataio reads and writes numeric datasets as CSV, optionally
// zstd-compressed, either whole or row by row.
package dataio

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// CompressedExt selects zstd compression in OpenCSV and CreateCSV.
const CompressedExt = ".zst"

// CSVReader yields the rows of a numeric CSV stream. It implements
// performance.RowSource.
type CSVReader struct {
	r       *csv.Reader
	header  []string
	line    int
	width   int
	row     []float64
	closers []io.Closer
}

// NewCSVReader reads CSV from r. With hasHeader the first record is kept
// as column names instead of data.
func NewCSVReader(r io.Reader, hasHeader bool) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	c := &CSVReader{r: cr, width: -1}
	if hasHeader {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.NewModelError("NewCSVReader", "missing header", errors.ErrEmptyData)
			}
			return nil, errors.Wrap(err, "failed to read CSV header")
		}
		c.header = append([]string(nil), rec...)
		c.width = len(rec)
		c.line = 1
	}
	return c, nil
}

// OpenCSV opens a CSV file for reading. Files ending in ".zst" are
// decompressed on the fly.
func OpenCSV(path string, hasHeader bool) (*CSVReader, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	closers := []io.Closer{f}

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "failed to create zstd reader")
		}
		closers = append([]io.Closer{zr.IOReadCloser()}, closers...)
		r = zr
	}

	c, err := NewCSVReader(r, hasHeader)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	c.closers = closers
	return c, nil
}

// Header returns the column names, or nil without a header.
func (c *CSVReader) Header() []string { return c.header }

// Next returns the next row, or io.EOF. The slice is reused by the next
// call. Blank and non-numeric fields are ValidationErrors carrying the
// 0-based data row and column.
func (c *CSVReader) Next() ([]float64, error) {
	rec, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "failed to read CSV line %d", c.line+1)
	}
	row := c.line
	if c.header != nil {
		row--
	}
	c.line++

	if c.width < 0 {
		c.width = len(rec)
	}
	if len(rec) != c.width {
		return nil, errors.Mark(
			errors.NewElementValidationError("csv", "wrong number of fields", len(rec), row, min(len(rec), c.width)),
			errors.ErrRaggedRows)
	}

	if cap(c.row) < len(rec) {
		c.row = make([]float64, len(rec))
	}
	c.row = c.row[:len(rec)]
	for j, field := range rec {
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, errors.NewElementValidationError("csv", "missing value", field, row, j)
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.NewElementValidationError("csv", "not a number", field, row, j)
		}
		c.row[j] = v
	}
	return c.row, nil
}

// Close releases the underlying file, if any.
func (c *CSVReader) Close() error {
	return closeAll(c.closers)
}

// ReadCSV reads a whole CSV stream into a matrix.
func ReadCSV(r io.Reader, hasHeader bool) (*mat.Dense, []string, error) {
	c, err := NewCSVReader(r, hasHeader)
	if err != nil {
		return nil, nil, err
	}
	return c.readAll()
}

// ReadCSVFile reads a whole CSV file into a matrix.
func ReadCSVFile(path string, hasHeader bool) (*mat.Dense, []string, error) {
	c, err := OpenCSV(path, hasHeader)
	if err != nil {
		return nil, nil, err
	}
	defer c.Close()
	return c.readAll()
}

func (c *CSVReader) readAll() (*mat.Dense, []string, error) {
	var data []float64
	rows := 0
	for {
		row, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		data = append(data, row...)
		rows++
	}
	if rows == 0 || c.width == 0 {
		return nil, nil, errors.NewModelError("ReadCSV", "empty data", errors.ErrEmptyData)
	}
	return mat.NewDense(rows, c.width, data), c.header, nil
}

// CSVWriter writes numeric rows as CSV. It implements performance.RowSink.
// Values are formatted with the shortest representation that parses back
// to the same float64.
type CSVWriter struct {
	w       *csv.Writer
	record  []string
	closers []io.Closer
}

// NewCSVWriter writes to w, starting with header when it is non-empty.
func NewCSVWriter(w io.Writer, header []string) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if len(header) > 0 {
		if err := cw.w.Write(header); err != nil {
			return nil, errors.Wrap(err, "failed to write CSV header")
		}
	}
	return cw, nil
}

// CreateCSV creates path for writing. Files ending in ".zst" are
// zstd-compressed.
func CreateCSV(path string, header []string) (*CSVWriter, error) {
	f, err := os.Create(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", path)
	}
	closers := []io.Closer{f}

	var w io.Writer = f
	if strings.HasSuffix(path, CompressedExt) {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "failed to create zstd writer")
		}
		closers = append([]io.Closer{zw}, closers...)
		w = zw
	}

	cw, err := NewCSVWriter(w, header)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	cw.closers = closers
	return cw, nil
}

// Write writes one row.
func (cw *CSVWriter) Write(row []float64) error {
	cw.record = cw.record[:0]
	for _, v := range row {
		cw.record = append(cw.record, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if err := cw.w.Write(cw.record); err != nil {
		return errors.Wrap(err, "failed to write CSV row")
	}
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush CSV")
	}
	return nil
}

// Close flushes and releases the underlying file, if any.
func (cw *CSVWriter) Close() error {
	err := cw.Flush()
	if cerr := closeAll(cw.closers); err == nil {
		err = cerr
	}
	return err
}

// WriteCSV writes every row of X to w.
func WriteCSV(w io.Writer, X mat.Matrix, header []string) error {
	cw, err := NewCSVWriter(w, header)
	if err != nil {
		return err
	}
	r, _ := X.Dims()
	for i := 0; i < r; i++ {
		if err := cw.Write(mat.Row(nil, i, X)); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// WriteCSVFile writes every row of X to path.
func WriteCSVFile(path string, X mat.Matrix, header []string) error {
	cw, err := CreateCSV(path, header)
	if err != nil {
		return err
	}
	r, _ := X.Dims()
	for i := 0; i < r; i++ {
		if err := cw.Write(mat.Row(nil, i, X)); err != nil {
			cw.Close()
			return err
		}
	}
	return cw.Close()
}

// closeAll closes in order and returns the first error.
func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "close failed")
		}
	}
	return first
}
