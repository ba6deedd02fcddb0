package receipt

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/zombor/receipt-scan/internal/export"
	"github.com/zombor/receipt-scan/internal/scanning"
)

// multipart data above this size is spooled to disk while parsing
const maxFormMemory = 32 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
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

type batchResponse struct {
	Entries    []FileEntry  `json:"entries"`
	Processing bool         `json:"processing"`
	Table      export.Table `json:"table"`
}

// handleListFiles returns every entry plus the review table of completed records
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	entries := s.service.Entries()
	if entries == nil {
		entries = []FileEntry{}
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Entries:    entries,
		Processing: s.service.Processing(),
		Table:      export.Derive(s.service.Completed()),
	})
}

// handleUploadFiles accepts one or more files and starts scanning them
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}

	files := make([]scanning.File, 0, len(headers))
	for _, header := range headers {
		f, err := readUpload(header)
		if err != nil {
			slog.Error("Error reading file data", "error", err, "filename", header.Filename)
			jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		files = append(files, f)
	}

	writeJSON(w, http.StatusAccepted, s.service.Submit(files))
}

func readUpload(header *multipart.FileHeader) (scanning.File, error) {
	f, err := header.Open()
	if err != nil {
		return scanning.File{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return scanning.File{}, fmt.Errorf("reading upload: %w", err)
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = scanning.ContentTypeFor(header.Filename)
	}
	return scanning.File{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

// handleReset discards the whole batch
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.service.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// handleExport returns the clipboard representations of the completed records
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records := s.service.Completed()
	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	items, err := export.Items(export.Derive(records))
	if err != nil {
		slog.Error("Error rendering export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleExportXLSX returns the completed records as a workbook download
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	records := s.service.Completed()
	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data, err := export.Derive(records).XLSX()
	if err != nil {
		slog.Error("Error rendering workbook", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	w.Write(data)
}
