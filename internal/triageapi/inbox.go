package triageapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/sift/internal/message"
	"github.com/linnemanlabs/sift/internal/triage"
)

// inboxItem pairs a normalized message with its triage result.
type inboxItem struct {
	Message *message.Message `json:"message"`
	Result  *triage.Result   `json:"result"`
}

type inboxResponse struct {
	Source   string      `json:"source"`
	Fetched  int         `json:"fetched"`
	Rejected int         `json:"rejected"`
	Items    []inboxItem `json:"items"`
}

// handleInbox pulls everything a source currently has, normalizes each
// record, and triages the ones that pass validation. Records the source
// produced in a bad shape are skipped and counted, not fatal to the batch.
func (a *API) handleInbox(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	src, ok := a.sources.Get(name)
	if !ok {
		http.Error(w, `{"error":"unknown source"}`, http.StatusNotFound)
		return
	}

	records, err := src.Fetch(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "source fetch failed", "source", name)
		http.Error(w, `{"error":"source unavailable"}`, http.StatusBadGateway)
		return
	}

	resp := inboxResponse{Source: name, Fetched: len(records), Items: []inboxItem{}}
	for _, raw := range records {
		msg, err := message.Normalize(name, raw)
		if err != nil {
			resp.Rejected++
			a.rejected(name)
			a.logger.Warn(r.Context(), "ingested record rejected", "source", name, "error", err.Error())
			continue
		}

		result := a.pipeline.Triage(r.Context(), msg)
		a.notify(r.Context(), msg, result)
		resp.Items = append(resp.Items, inboxItem{Message: msg, Result: result})
	}

	writeJSON(w, http.StatusOK, resp)
}
