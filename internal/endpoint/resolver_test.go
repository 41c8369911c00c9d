package endpoint

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantKind Kind
		wantBase string
	}{
		{"local keyword", "local", KindLocal, LocalBase},
		{"local url", "http://localhost:54321/", KindLocal, "http://localhost:54321"},
		{"project ref", "abcdefghijklmnopqrst", KindHosted, "https://abcdefghijklmnopqrst.supabase.co"},
		{"hosted url with path", "https://abcdefghijklmnopqrst.supabase.co/rest/v1", KindHosted, "https://abcdefghijklmnopqrst.supabase.co"},
		{"custom domain", "https://api.example.com", KindCustom, "https://api.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.in, err)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Base != tt.wantBase {
				t.Errorf("Base = %q, want %q", got.Base, tt.wantBase)
			}
			if got.RestURL != tt.wantBase+"/rest/v1" || got.AuthURL != tt.wantBase+"/auth/v1" {
				t.Errorf("service roots = %q, %q", got.RestURL, got.AuthURL)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "not a url", "ftp://host", "https://user:pw@abcdefghijklmnopqrst.supabase.co"} {
		_, err := Resolve(in)
		if err == nil {
			t.Errorf("Resolve(%q) expected error", in)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Resolve(%q) error %T is not *ParseError", in, err)
		}
	}
}
