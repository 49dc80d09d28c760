package web

import (
	"net/http"

	"github.com/robinvdvleuten/custommodel/document"
	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/robinvdvleuten/custommodel/telemetry"
)

// CompleteRequest asks for completions either inside a document or inside a
// single expression. Exactly one of Source and Expression must be set.
type CompleteRequest struct {
	// Source and Offset address a cursor in a whole document.
	Source *string `json:"source"`
	Offset int     `json:"offset"`

	// Expression and Pos address a cursor in one condition. Areas are the
	// area names the expression may refer to.
	Expression *string  `json:"expression"`
	Pos        int      `json:"pos"`
	Areas      []string `json:"areas"`
}

// handleComplete handles POST requests to /api/complete.
// The returned range is in the coordinates of whatever was sent.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var request CompleteRequest
	if !decodeJSONRequest(w, r, &request) {
		return
	}

	timer := telemetry.Start(r.Context(), "complete")
	defer timer.End()

	switch {
	case request.Source != nil && request.Expression == nil:
		if request.Offset < 0 || request.Offset > len(*request.Source) {
			http.Error(w, "offset out of range", http.StatusBadRequest)
			return
		}
		writeJSONResponse(w, document.CompleteAt(*request.Source, request.Offset, s.categories(), s.engine))

	case request.Expression != nil && request.Source == nil:
		vocab := parser.Vocabulary{Categories: s.categories(), Areas: request.Areas}
		writeJSONResponse(w, s.engine.Complete(*request.Expression, request.Pos, vocab))

	default:
		http.Error(w, "either source or expression is required", http.StatusBadRequest)
	}
}

