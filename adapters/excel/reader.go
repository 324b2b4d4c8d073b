package excel

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"tabprep/adapters/datareadiness/coercer"
	"tabprep/adapters/jsonrecords"
	"tabprep/domain/datareadiness/ingestion"
)

// DataReader loads CSV, XLSX and JSON files into recordsets. It implements
// RecordsetLoaderPort.
type DataReader struct {
	config  ReaderConfig
	coercer *coercer.TypeCoercer
}

// NewDataReader creates a reader with the given config
func NewDataReader(config ReaderConfig) *DataReader {
	return &DataReader{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
	}
}

// Load reads path, choosing the format from its extension
func (r *DataReader) Load(ctx context.Context, path string) (ingestion.Recordset, error) {
	if err := ctx.Err(); err != nil {
		return ingestion.Recordset{}, err
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	log.Printf("[DataReader] Starting to read %s file: %s", fileType, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ingestion.Recordset{}, fmt.Errorf("%s file not found: %s", strings.ToUpper(fileType), path)
	}

	switch fileType {
	case "json":
		data, err := os.ReadFile(path)
		if err != nil {
			return ingestion.Recordset{}, fmt.Errorf("failed to read JSON file: %w", err)
		}
		return jsonrecords.Decode(data)
	case "csv":
		table, err := r.ReadCSV(path)
		if err != nil {
			return ingestion.Recordset{}, err
		}
		return r.toRecordset(fileType, table)
	case "xlsx", "xlsm":
		table, err := r.ReadExcel(path)
		if err != nil {
			return ingestion.Recordset{}, err
		}
		return r.toRecordset(fileType, table)
	}
	return ingestion.Recordset{}, fmt.Errorf("unsupported file type: %q", fileType)
}

// ReadCSV reads a CSV file as untyped strings. The header is read as an
// ordinary row so that gota does not rename empty or repeated names; the
// coercer rejects those.
func (r *DataReader) ReadCSV(path string) (*RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	readStart := time.Now()
	df := dataframe.ReadCSV(file,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", df.Err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, df.Nrow())

	if df.Nrow() < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}

	// Records starts with gota's generated X0..Xn names
	rows := df.Records()[1:]
	return &RawTable{Header: rows[0], Rows: rows[1:]}, nil
}

// ReadExcel reads the configured sheet, or the first one, as untyped strings
func (r *DataReader) ReadExcel(path string) (*RawTable, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	// GetRows reports blank rows as empty slices
	data := make([][]string, 0, len(rows))
	skipped := 0
	for _, row := range rows[min(1, len(rows)):] {
		if isBlank(row) {
			skipped++
			continue
		}
		data = append(data, row)
	}
	if skipped > 0 {
		log.Printf("[DataReader] Skipped %d blank rows in %s", skipped, sheet)
	}

	if len(rows) == 0 || len(data) == 0 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}
	return &RawTable{Header: rows[0], Rows: data}, nil
}

func (r *DataReader) toRecordset(fileType string, table *RawTable) (ingestion.Recordset, error) {
	rs, err := r.coercer.BuildRecordset(table.Header, table.Rows)
	if err != nil {
		return ingestion.Recordset{}, fmt.Errorf("failed to type %s data: %w", strings.ToUpper(fileType), err)
	}
	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(fileType), len(table.Header), rs.Len())
	return rs, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
