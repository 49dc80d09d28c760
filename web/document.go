package web

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/robinvdvleuten/custommodel/document"
	"github.com/robinvdvleuten/custommodel/telemetry"
)

// maxBodySize limits request bodies. Custom models are small.
const maxBodySize = 1 << 20

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSONRequest decodes the request body into v, answering 400 on
// failure.
func decodeJSONRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// CheckResponse is the outcome of checking a document.
type CheckResponse struct {
	Valid       bool                 `json:"valid"`
	Diagnostics []document.Error     `json:"diagnostics"`
	Conditions  []document.Condition `json:"conditions"`
	Areas       []string             `json:"areas"`
}

type DocumentResponse struct {
	Filepath string `json:"filepath"`
	Source   string `json:"source"`
	CheckResponse
}

func (s *Server) check(r *http.Request, source string) CheckResponse {
	timer := telemetry.Start(r.Context(), "check document")
	defer timer.End()

	report := document.Check(source, s.categories())
	return CheckResponse{
		Valid:       len(report.Diagnostics) == 0,
		Diagnostics: report.Diagnostics,
		Conditions:  report.Conditions,
		Areas:       report.AreaNames,
	}
}

// handleGetDocument handles GET requests to /api/document.
// Returns the document content and its diagnostics as JSON.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(s.documentFile)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, &DocumentResponse{
		Filepath:      s.documentFile,
		Source:        string(content),
		CheckResponse: s.check(r, string(content)),
	})
}

// handlePutDocument handles PUT requests to /api/document.
// Writes the provided content to the document and returns its diagnostics.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Source string `json:"source"`
	}
	if !decodeJSONRequest(w, r, &request) {
		return
	}

	if err := os.WriteFile(s.documentFile, []byte(request.Source), 0600); err != nil {
		http.Error(w, "Failed to write file", http.StatusInternalServerError)
		return
	}
	s.Logger.Info("saved document", "path", s.documentFile, "bytes", len(request.Source))

	writeJSONResponse(w, &DocumentResponse{
		Filepath:      s.documentFile,
		Source:        request.Source,
		CheckResponse: s.check(r, request.Source),
	})
}

// handleValidate handles POST requests to /api/validate.
// Checks unsaved text without touching the document on disk.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Source string `json:"source"`
	}
	if !decodeJSONRequest(w, r, &request) {
		return
	}
	writeJSONResponse(w, s.check(r, request.Source))
}
