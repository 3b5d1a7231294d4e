package scanning

// FieldExtraction is one extracted field. Value is nil when the
// backend could not read the field; Confidence is in [0, 1]. BBox is
// the region the value was read from, when the backend reports one.
type FieldExtraction struct {
	Value      *string   `json:"value"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox,omitempty"`
}

// ScanResult is the envelope the scanner API returns for a successful
// scan. Fields are keyed by wire name (id_number, full_name, ...) and
// are carried verbatim: no renaming, filtering or re-validation.
type ScanResult struct {
	DocumentType     string                     `json:"document_type"`
	Fields           map[string]FieldExtraction `json:"fields"`
	ProcessingTimeMS float64                    `json:"processing_time_ms"`
	Warnings         []string                   `json:"warnings"`
	Metadata         map[string]any             `json:"metadata"`
}

// Health is the scanner API health check response
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
