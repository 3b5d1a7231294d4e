package workflow

import (
	"fmt"
	"html/template"
	"math"
	"sort"
	"strings"

	"github.com/fairooos/scanner-web/internal/scanning"
)

// NotDetected is shown in place of a value the backend could not read
const NotDetected = "Not detected"

// FieldView is one rendered row of the extracted fields list
type FieldView struct {
	Label      string
	Value      string
	Confidence string
	Detected   bool
}

// ResultView is the display form of a stored envelope. Fields are in
// sorted name order so re-rendering the same envelope always produces
// the same page.
type ResultView struct {
	DocumentType   string
	Preview        template.URL
	ProcessingTime string
	Fields         []FieldView
	WarningText    string
}

// NewResultView projects a stored envelope into display form
func NewResultView(result *scanning.ScanResult) *ResultView {
	names := make([]string, 0, len(result.Fields))
	for name := range result.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]FieldView, 0, len(names))
	for _, name := range names {
		extraction := result.Fields[name]
		fields = append(fields, FieldView{
			Label:      FieldLabel(name),
			Value:      FieldValue(extraction),
			Confidence: ConfidencePercent(extraction.Confidence),
			Detected:   extraction.Value != nil && *extraction.Value != "",
		})
	}

	return &ResultView{
		DocumentType:   result.DocumentType,
		ProcessingTime: ProcessingTime(result.ProcessingTimeMS),
		Fields:         fields,
		WarningText:    strings.Join(result.Warnings, "\n"),
	}
}

var labelReplacer = strings.NewReplacer("_", " ", "-", " ")

// FieldLabel turns a wire field name into its display label:
// separators become spaces and the result is upper-cased, so
// "id_number" renders as "ID NUMBER"
func FieldLabel(name string) string {
	return strings.ToUpper(labelReplacer.Replace(name))
}

// FieldValue returns the extracted value, or the NotDetected
// placeholder when the backend returned null or an empty string
func FieldValue(extraction scanning.FieldExtraction) string {
	if extraction.Value == nil || *extraction.Value == "" {
		return NotDetected
	}
	return *extraction.Value
}

// ConfidencePercent formats a [0, 1] confidence with one decimal
// place, so 0.953 renders as "95.3%"
func ConfidencePercent(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// ProcessingTime formats the backend's reported duration rounded to
// the nearest whole millisecond
func ProcessingTime(ms float64) string {
	return fmt.Sprintf("%d ms", int64(math.Round(ms)))
}
