package httperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, Generic},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "db.example"}, DNS},
		{"refused errno", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), ConnectionRefused},
		{"refused text", errors.New("dial tcp 127.0.0.1:54321: connect: connection refused"), ConnectionRefused},
		{"tls", errors.New("x509: certificate signed by unknown authority"), TLS},
		{"server", errors.New("sign in: status 503"), Server},
		{"other", errors.New("boom"), Generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestRenderMentionsHostAndAction(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, errors.New("connection refused"), "signing in", "http://127.0.0.1:54321/auth/v1")
	out := buf.String()
	for _, want := range []string{"signing in", "127.0.0.1:54321", "details: connection refused"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestHost(t *testing.T) {
	if got := Host("https://abc.supabase.co/rest/v1"); got != "abc.supabase.co" {
		t.Errorf("Host() = %q", got)
	}
	if got := Host("::bad"); got != "server" {
		t.Errorf("Host() = %q, want server", got)
	}
}
