package workflow

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/fairooos/scanner-web/internal/scanning"
)

// maxUploadBytes mirrors the scanner API's own upload cap
const maxUploadBytes = 10 << 20

// selectionPage is the template data for the selection page
type selectionPage struct {
	Types  []DocumentType
	Notice string
}

// uploadPage is the template data for the upload page
type uploadPage struct {
	Title  string
	Notice string
}

// handleSelectionPage serves the document type selection page
func (s *Server) handleSelectionPage(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.renderPage(w, "selection.html", selectionPage{Types: DocumentTypes()}, http.StatusOK)
}

// handleSelect records the chosen type and moves the session to the
// upload step
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, sessionID string) {
	doc, err := ParseDocumentType(r.FormValue("type"))
	if err != nil {
		s.renderPage(w, "selection.html", selectionPage{
			Types:  DocumentTypes(),
			Notice: "Please choose one of the supported document types.",
		}, http.StatusBadRequest)
		return
	}

	if err := s.flow.Select(sessionID, doc); err != nil {
		slog.Error("Error recording selection", "type", doc, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

// handleUploadPage serves the upload page for the selected type.
// Reaching it without a selection redirects back to the start.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request, sessionID string) {
	title, err := s.flow.UploadTitle(sessionID)
	if err != nil {
		if errors.Is(err, ErrNoSelection) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		slog.Error("Error reading selection", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.renderPage(w, "upload.html", uploadPage{Title: title}, http.StatusOK)
}

// handleUpload is the single submission endpoint behind the upload
// button, the drop zone click and native drag-and-drop
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, sessionID string) {
	title, err := s.flow.UploadTitle(sessionID)
	if err != nil {
		if errors.Is(err, ErrNoSelection) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		slog.Error("Error reading selection", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rerender := func(notice string, status int) {
		s.renderPage(w, "upload.html", uploadPage{Title: title, Notice: notice}, status)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rerender("File is too large. The maximum size is 10MB.", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Error("Error parsing multipart form", "error", err)
		rerender("The upload could not be read. Please try again.", http.StatusBadRequest)
		return
	}

	// Only the first part named "file" is used; extra files in the
	// same submission are ignored
	file, header, err := r.FormFile("file")
	if err != nil {
		rerender("No file was selected. Please choose an image to upload.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Error reading upload", "filename", header.Filename, "error", err)
		rerender("The file could not be read. Please try again.", http.StatusBadRequest)
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)

	if err := s.flow.HandleFile(r.Context(), sessionID, header.Filename, data, contentType); err != nil {
		var rejection *scanning.RemoteRejection
		var transport *scanning.TransportFailure
		switch {
		case errors.Is(err, ErrNoSelection):
			http.Redirect(w, r, "/", http.StatusSeeOther)
		case errors.Is(err, ErrInvalidFileType):
			rerender("Please upload an image file.", http.StatusUnsupportedMediaType)
		case errors.As(err, &rejection), errors.As(err, &transport):
			slog.Error("Scan submission failed", "filename", header.Filename, "error", err)
			rerender("Scan failed: "+err.Error(), http.StatusBadGateway)
		default:
			slog.Error("Upload processing failed", "filename", header.Filename, "error", err)
			rerender("Something went wrong. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/results", http.StatusSeeOther)
}

// handleResultsPage renders the stored scan result. Reaching it
// without one redirects back to the start.
func (s *Server) handleResultsPage(w http.ResponseWriter, r *http.Request, sessionID string) {
	view, err := s.flow.ResultView(sessionID)
	if err != nil {
		if errors.Is(err, ErrNoResult) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		slog.Error("Error reading scan result", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.renderPage(w, "results.html", view, http.StatusOK)
}

// uploadContentType falls back to the filename extension when the
// browser didn't declare a useful type for the part
func uploadContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		if contentType != "" {
			return contentType
		}
		return "application/octet-stream"
	}
}

// renderPage writes one of the embedded page templates
func (s *Server) renderPage(w http.ResponseWriter, name string, data any, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Error rendering page", "page", name, "error", err)
	}
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
