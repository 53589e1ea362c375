package triageapi

import (
	"net/http"

	"github.com/linnemanlabs/sift/internal/message"
)

// handleWebhook accepts inbound payloads from external relays (n8n, Zapier,
// email parsers). Field names vary by relay; the webhook mapping table in the
// normalizer reconciles them.
func (a *API) handleWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeRaw(r)
	if err != nil {
		a.writeBadInput(w, r, err)
		return
	}

	msg, err := message.Normalize(message.SourceWebhook, raw)
	if err != nil {
		a.rejected(message.SourceWebhook)
		a.writeBadInput(w, r, err)
		return
	}
	annotateSpan(r, msg)

	a.logger.Info(r.Context(), "webhook message accepted",
		"message_id", msg.ID,
		"channel", msg.Channel(),
		"product", msg.Product(),
	)

	result := a.pipeline.Triage(r.Context(), msg)
	a.notify(r.Context(), msg, result)

	writeJSON(w, http.StatusOK, result)
}
