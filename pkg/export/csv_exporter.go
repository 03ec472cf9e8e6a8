package export

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// TimetableRow is one flattened timetable entry.
type TimetableRow struct {
	Day         string `csv:"day"`
	StartTime   string `csv:"start_time"`
	EndTime     string `csv:"end_time"`
	SubjectCode string `csv:"subject_code"`
	SubjectName string `csv:"subject_name"`
	Faculty     string `csv:"faculty"`
	Classroom   string `csv:"classroom"`
	Batch       string `csv:"batch"`
	EntryID     string `csv:"entry_id"`
}

var rowHeaders = []string{"Day", "Start", "End", "Code", "Subject", "Faculty", "Classroom", "Batch"}

func (r TimetableRow) cells() []string {
	return []string{r.Day, r.StartTime, r.EndTime, r.SubjectCode, r.SubjectName, r.Faculty, r.Classroom, r.Batch}
}

// CSVExporter renders timetable rows into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes with a header line.
func (e *CSVExporter) Render(rows []TimetableRow) ([]byte, error) {
	if rows == nil {
		rows = []TimetableRow{}
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal csv rows: %w", err)
	}
	return out, nil
}

// Parse reads rows previously produced by Render.
func (e *CSVExporter) Parse(data []byte) ([]TimetableRow, error) {
	var rows []TimetableRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal csv rows: %w", err)
	}
	return rows, nil
}
