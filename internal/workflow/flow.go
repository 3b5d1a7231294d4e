package workflow

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/fairooos/scanner-web/internal/scanning"
)

// ErrInvalidFileType rejects a non-image upload before any network
// activity happens on its behalf
var ErrInvalidFileType = errors.New("only image files can be scanned")

// Flow drives the three-step scan workflow on top of the session store
// and the scanner client
type Flow struct {
	store   SessionStore
	scanner scanning.Scanner
}

// NewFlow creates a new Flow
func NewFlow(store SessionStore, scanner scanning.Scanner) *Flow {
	return &Flow{
		store:   store,
		scanner: scanner,
	}
}

// Select records the chosen document type for the session
func (f *Flow) Select(sessionID string, doc DocumentType) error {
	if err := f.store.SetSelection(sessionID, doc); err != nil {
		return fmt.Errorf("recording selection: %w", err)
	}
	return nil
}

// UploadTitle returns the display title for the session's selected
// type. It fails with ErrNoSelection when the selection step was
// skipped, which callers turn into a redirect to the start.
func (f *Flow) UploadTitle(sessionID string) (string, error) {
	doc, err := f.store.Selection(sessionID)
	if err != nil {
		return "", err
	}
	return doc.Title(), nil
}

// HandleFile is the single submission path behind every acquisition
// method. It validates the declared media type, captures the preview,
// submits the file for scanning and stores the result envelope. The
// preview write completes before the submission starts, and the result
// slot is only touched after a confirmed success.
func (f *Flow) HandleFile(ctx context.Context, sessionID, filename string, data []byte, contentType string) error {
	doc, err := f.store.Selection(sessionID)
	if err != nil {
		return err
	}

	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return fmt.Errorf("%w: %s is %s", ErrInvalidFileType, filename, contentType)
	}

	// Preview capture is best-effort: a failed write (typically a
	// photo too large for the store's per-value capacity) degrades to
	// "no preview" and never blocks the scan, but the slot must not be
	// left holding a stale image from an earlier upload.
	if err := f.store.SetPreview(sessionID, EncodePreview(data, contentType)); err != nil {
		slog.Warn("Preview capture failed", "filename", filename, "error", err)
		if err := f.store.ClearPreview(sessionID); err != nil {
			slog.Warn("Failed to clear preview slot", "error", err)
		}
	}

	result, err := f.scanner.Scan(ctx, doc.Route(), filename, data, contentType)
	if err != nil {
		// The scanner's error classification is surfaced as-is
		return err
	}

	if err := f.store.SetResult(sessionID, result); err != nil {
		return fmt.Errorf("storing scan result: %w", err)
	}
	return nil
}

// ResultView assembles everything the results page renders. It fails
// with ErrNoResult when no envelope is stored for the session.
func (f *Flow) ResultView(sessionID string) (*ResultView, error) {
	result, err := f.store.Result(sessionID)
	if err != nil {
		return nil, err
	}

	view := NewResultView(result)
	if preview, ok := f.store.Preview(sessionID); ok {
		view.Preview = template.URL(preview)
	}
	return view, nil
}
