package main

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
)

func TestNotifySystemd_Errors(t *testing.T) {
	tests := []struct {
		name      string
		socket    func(t *testing.T) string
		errSubstr string
	}{
		{
			name:      "socket unset",
			socket:    func(*testing.T) string { return "" },
			errSubstr: "NOTIFY_SOCKET not set",
		},
		{
			name: "socket path does not exist",
			socket: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nonexistent.sock")
			},
			errSubstr: "dial failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NOTIFY_SOCKET", tt.socket(t))

			err := notifySystemd()
			if err == nil {
				t.Fatal("notifySystemd() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("error = %q, want substring %q", err, tt.errSubstr)
			}
		})
	}
}

func TestNotifySystemd_SendsReady(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "notify.sock")

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(context.Background(), "unixgram", sockPath)
	if err != nil {
		t.Fatalf("listen unixgram: %v", err)
	}
	defer func() { _ = conn.Close() }()

	t.Setenv("NOTIFY_SOCKET", sockPath)

	if err := notifySystemd(); err != nil {
		t.Fatalf("notifySystemd() = %v, want nil", err)
	}

	buf := make([]byte, 64)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read from socket: %v", err)
	}
	if got := string(buf[:n]); got != "READY=1" {
		t.Errorf("payload = %q, want %q", got, "READY=1")
	}
}
