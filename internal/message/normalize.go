package message

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Known payload sources. Each has its own field-mapping table below.
const (
	SourceManual  = "manual"
	SourceGmail   = "gmail"
	SourcePhone   = "phone"
	SourceWebhook = "webhook"
)

// Raw is an untyped inbound payload before normalization.
type Raw map[string]any

// aliases lists, per source, the payload keys accepted for each canonical
// field, in priority order. Webhook payloads arrive from a mix of relay tools
// (Zapier, n8n, SendGrid) that disagree on field names.
var aliases = map[string]map[string][]string{
	SourceManual: {
		"sender":  {"sender"},
		"content": {"content"},
		"subject": {"subject"},
		"product": {"product"},
	},
	SourceGmail: {
		"sender":  {"sender", "from"},
		"content": {"content", "body"},
		"subject": {"subject"},
		"product": {"product"},
	},
	SourcePhone: {
		"sender":  {"sender", "caller"},
		"content": {"content", "transcript"},
		"subject": {"subject"},
		"product": {"product"},
	},
	SourceWebhook: {
		"sender":  {"from", "sender", "email"},
		"content": {"content", "message", "body"},
		"subject": {"subject", "title"},
		"product": {"product", "source_product"},
	},
}

var phoneSenderRe = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,}$`)

// productHints maps content keywords to a product when the payload carries
// none. Webhook senders frequently omit the product field.
var productHints = []struct{ keyword, product string }{
	{"compactor", "Pioneer"},
	{"pickup", "Hauler"},
	{"invoice", "Discovery"},
}

// Normalize converts a source-shaped payload into a canonical Message, or
// fails with a *ValidationError naming the offending field. Keys consumed by
// the mapping are dropped; every other scalar field is preserved under
// Metadata so downstream stages can use it opportunistically.
func Normalize(source string, raw Raw) (*Message, error) {
	table, ok := aliases[source]
	if !ok {
		return nil, &ValidationError{Field: "source", Reason: "unknown source " + strconv.Quote(source)}
	}

	consumed := make(map[string]bool)
	pick := func(field string) string {
		for _, key := range table[field] {
			if v, ok := lookupString(raw, key); ok {
				consumed[key] = true
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	msg := &Message{
		ID:         ulid.Make().String(),
		Sender:     pick("sender"),
		Subject:    pick("subject"),
		Content:    pick("content"),
		Metadata:   map[string]string{},
		ReceivedAt: time.Now().UTC(),
	}

	// Phone callers have no mailbox; synthesize a stable address from the
	// dialed number so the sender invariant holds on every channel.
	if source == SourcePhone && phoneSenderRe.MatchString(msg.Sender) {
		msg.Sender = digits(msg.Sender) + "@phone.sift.internal"
	}

	if product := pick("product"); product != "" {
		msg.Metadata[MetaProduct] = product
	}

	channel := source
	if source == SourceWebhook {
		if v, ok := lookupString(raw, "channel"); ok {
			consumed["channel"] = true
			channel = strings.TrimSpace(v)
		}
	}
	msg.Metadata[MetaChannel] = channel

	// Nested metadata object first, then leftover top-level scalars.
	if nested, ok := raw["metadata"].(map[string]any); ok {
		consumed["metadata"] = true
		for k, v := range nested {
			if s, ok := stringify(v); ok {
				msg.Metadata[k] = s
			}
		}
	}
	for k, v := range raw {
		if consumed[k] || k == "timestamp" {
			continue
		}
		if s, ok := stringify(v); ok {
			msg.Metadata[k] = s
		}
	}

	if msg.Metadata[MetaProduct] == "" {
		inferProduct(msg)
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

func inferProduct(msg *Message) {
	content := strings.ToLower(msg.Content)
	for _, hint := range productHints {
		if strings.Contains(content, hint.keyword) {
			msg.Metadata[MetaProduct] = hint.product
			return
		}
	}
}

func lookupString(raw Raw, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// stringify flattens JSON scalar values (and lists of them) to strings.
// Nested objects are dropped rather than guessed at.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := stringify(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		sort.Strings(parts)
		return strings.Join(parts, ","), true
	default:
		return "", false
	}
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
