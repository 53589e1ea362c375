package ingest

import (
	"context"
	"sort"
	"testing"

	"github.com/linnemanlabs/sift/internal/message"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(NewGmail())
	r.Register(NewPhone())

	if _, ok := r.Get("gmail"); !ok {
		t.Error("gmail source not registered")
	}
	if _, ok := r.Get("phone"); !ok {
		t.Error("phone source not registered")
	}
	if _, ok := r.Get("fax"); ok {
		t.Error("unexpected fax source")
	}

	names := r.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "gmail" || names[1] != "phone" {
		t.Errorf("names = %v", names)
	}
}

func TestGmail_RecordsNormalize(t *testing.T) {
	t.Parallel()

	records, err := NewGmail().Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected mock inbox records")
	}

	for i, raw := range records {
		msg, err := message.Normalize(message.SourceGmail, raw)
		if err != nil {
			t.Errorf("record %d does not normalize: %v", i, err)
			continue
		}
		if msg.Channel() != message.SourceGmail {
			t.Errorf("record %d channel = %q", i, msg.Channel())
		}
	}

	first, err := message.Normalize(message.SourceGmail, records[0])
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if first.Metadata["thread_id"] == "" {
		t.Error("thread_id not carried through metadata")
	}
}

func TestPhone_RecordsNormalize(t *testing.T) {
	t.Parallel()

	records, err := NewPhone().Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected mock voicemail records")
	}

	msg, err := message.Normalize(message.SourcePhone, records[0])
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if msg.Sender != "15551234567@phone.sift.internal" {
		t.Errorf("sender = %q, want synthesized mailbox address", msg.Sender)
	}
	if msg.Metadata["call_sid"] != "mock-call-sid-456" {
		t.Errorf("call_sid = %q", msg.Metadata["call_sid"])
	}
}
