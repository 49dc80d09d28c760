package web

import (
	"net/http"

	"github.com/robinvdvleuten/custommodel/parser"
)

// CategoryInfo describes one category of the vocabulary.
type CategoryInfo struct {
	Name   string      `json:"name"`
	Kind   parser.Kind `json:"kind"`
	Values []string    `json:"values,omitempty"`
}

// VocabularyResponse is the JSON response structure for the vocabulary endpoint.
type VocabularyResponse struct {
	Categories []CategoryInfo `json:"categories"`
	Areas      []string       `json:"areas"`
	Files      []string       `json:"files"`
}

// handleGetVocabulary handles GET requests to /api/vocabulary.
// Categories are returned in declaration order.
func (s *Server) handleGetVocabulary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	response := &VocabularyResponse{
		Categories: []CategoryInfo{},
		Areas:      []string{},
		Files:      []string{},
	}
	if s.vocabulary != nil {
		for _, c := range s.vocabulary.Vocabulary.Categories {
			response.Categories = append(response.Categories, CategoryInfo{Name: c.Name, Kind: c.Kind, Values: c.Values})
		}
		response.Areas = append(response.Areas, s.vocabulary.Vocabulary.Areas...)
		response.Files = s.vocabulary.Files()
	}

	writeJSONResponse(w, response)
}

// handleGetVersion handles GET requests to /api/version.
func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	version, commitSHA := s.Version, s.CommitSHA
	if version == "" {
		version = "dev"
	}
	if commitSHA == "" {
		commitSHA = "local"
	}
	writeJSONResponse(w, map[string]string{"version": version, "commit": commitSHA})
}
