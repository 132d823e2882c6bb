package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/tablecheck/metrics"
	"github.com/TFMV/tablecheck/pkg/core"
)

// Report is a rendered validation: the table plus its summary and context.
type Report struct {
	Source      string          `json:"source"`
	Target      string          `json:"target"`
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     metrics.Summary `json:"summary"`
	Table       Table           `json:"table"`
}

// New builds a report from a comparator's records.
func New(kind core.RecordKind, records core.ValidationReport, source, target string) Report {
	return Report{
		Source:      source,
		Target:      target,
		GeneratedAt: time.Now().UTC(),
		Summary:     Summarize(kind, records),
		Table:       Build(kind, records),
	}
}

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating reports.
type ReportGenerator interface {
	GenerateValidationReport(r Report) ([]byte, error)
	GenerateAlertNotification(r Report) ([]byte, error)
	SaveReportToFile(r Report, filePath string) error
}

// NewGenerator returns the generator for a format name (json, html, csv).
func NewGenerator(format string) (ReportGenerator, error) {
	switch format {
	case "", "json":
		return &JSONReportGenerator{}, nil
	case "html":
		return &HTMLReportGenerator{}, nil
	case "csv":
		return &CSVReportGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports.
type JSONReportGenerator struct{}

// GenerateValidationReport serializes the report to JSON.
func (j *JSONReportGenerator) GenerateValidationReport(r Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// GenerateAlertNotification generates an alert message in JSON format.
func (j *JSONReportGenerator) GenerateAlertNotification(r Report) ([]byte, error) {
	alert := map[string]interface{}{
		"alert":      "Validation Failed",
		"kind":       r.Summary.Kind,
		"source":     r.Source,
		"target":     r.Target,
		"mismatched": r.Summary.Mismatched,
		"message":    "Discrepancies detected in validation.",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	return json.MarshalIndent(alert, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(r Report, filePath string) error {
	data, err := j.GenerateValidationReport(r)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// ReportFromFilePath loads a report saved by the JSON generator.
func (j *JSONReportGenerator) ReportFromFilePath(path string) (Report, error) {
	return ReportFromFilePath(path)
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator generates HTML reports.
type HTMLReportGenerator struct{}

// HTML template for the report.
const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Tablecheck Validation Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>Validation Report</h1>
    <p><strong>Kind:</strong> {{.Summary.Kind}}</p>
    <p><strong>Source:</strong> {{.Source}}</p>
    <p><strong>Target:</strong> {{.Target}}</p>
    <p><strong>Status:</strong> {{if .Summary.Passed}}<span class="status-pass">PASS</span>{{else}}<span class="status-fail">FAIL</span>{{end}}</p>

    <h2>Summary</h2>
    <table>
        <tr>
            <th>Total</th>
            <th>Matched</th>
            <th>Mismatched</th>
            <th>Out of Range</th>
            <th>Match Rate</th>
        </tr>
        <tr>
            <td>{{.Summary.Total}}</td>
            <td>{{.Summary.Matched}}</td>
            <td>{{.Summary.Mismatched}}</td>
            <td>{{.Summary.OutOfRange}}</td>
            <td>{{percent .Summary.MatchRate}}</td>
        </tr>
    </table>

    <h2>Records</h2>
    <table>
        <tr>{{range .Table.Columns}}<th>{{.}}</th>{{end}}</tr>
        {{range $row := .Table.Rows}}
        <tr class="{{if index $row "match"}}status-pass{{else}}status-fail{{end}}">{{range $.Table.Columns}}<td>{{cell (index $row .)}}</td>{{end}}</tr>
        {{end}}
    </table>

    <footer>
        <p>Generated on {{.GeneratedAt.Format "2006-01-02T15:04:05Z07:00"}}</p>
    </footer>
</body>
</html>
`

var htmlFuncs = template.FuncMap{
	"cell": func(v any) string {
		if v == nil {
			return "null"
		}
		return fmt.Sprint(v)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f*100)
	},
}

// GenerateValidationReport generates an HTML report.
func (h *HTMLReportGenerator) GenerateValidationReport(r Report) ([]byte, error) {
	tmpl, err := template.New("report").Funcs(htmlFuncs).Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, r)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GenerateAlertNotification generates an HTML alert.
func (h *HTMLReportGenerator) GenerateAlertNotification(r Report) ([]byte, error) {
	alertHTML := fmt.Sprintf(
		`<html><body><h3>Validation Failed</h3><p>%d of %d %s records did not match between %s and %s.</p></body></html>`,
		r.Summary.Mismatched, r.Summary.Total, template.HTMLEscapeString(r.Summary.Kind),
		template.HTMLEscapeString(r.Source), template.HTMLEscapeString(r.Target),
	)
	return []byte(alertHTML), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(r Report, filePath string) error {
	data, err := h.GenerateValidationReport(r)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// CSV Report Generator
// -----------------------------

// CSVReportGenerator writes the record table as CSV through the Arrow CSV writer.
type CSVReportGenerator struct{}

// GenerateValidationReport renders the table with a header row. Nulls are
// written as "null".
func (c *CSVReportGenerator) GenerateValidationReport(r Report) ([]byte, error) {
	rec, err := ToRecord(memory.NewGoAllocator(), r.Table)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf, rec.Schema(), csv.WithHeader(true), csv.WithNullWriter("null"))
	if err := w.Write(rec); err != nil {
		return nil, fmt.Errorf("failed to write CSV report: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV report: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateAlertNotification generates a one-line CSV alert.
func (c *CSVReportGenerator) GenerateAlertNotification(r Report) ([]byte, error) {
	return []byte(fmt.Sprintf("alert,kind,mismatched,total\nValidation Failed,%s,%d,%d\n",
		r.Summary.Kind, r.Summary.Mismatched, r.Summary.Total)), nil
}

// SaveReportToFile saves the CSV report to a file.
func (c *CSVReportGenerator) SaveReportToFile(r Report, filePath string) error {
	data, err := c.GenerateValidationReport(r)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// SaveReports saves both JSON and HTML reports.
func SaveReports(r Report, jsonPath, htmlPath string) error {
	jsonGen := JSONReportGenerator{}
	htmlGen := HTMLReportGenerator{}

	if err := jsonGen.SaveReportToFile(r, jsonPath); err != nil {
		return err
	}
	if err := htmlGen.SaveReportToFile(r, htmlPath); err != nil {
		return err
	}
	return nil
}

// ReportFromFilePath loads a JSON report.
func ReportFromFilePath(filePath string) (Report, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, err
	}
	return r, nil
}
