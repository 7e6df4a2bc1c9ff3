package otel

import (
	"context"
	"testing"
)

func TestNewProviders_EmptyEndpointIsNoop(t *testing.T) {
	p, err := NewProviders(context.Background(), "", "auth-api", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if p.TracerProvider == nil || p.MeterProvider == nil || p.LoggerProvider == nil {
		t.Fatal("no-op providers should still be non-nil")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("no-op Shutdown: %v", err)
	}
}

func TestNewProviders_WhitespaceEndpointIsNoop(t *testing.T) {
	p, err := NewProviders(context.Background(), "   ", "auth-api", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestParseTarget(t *testing.T) {
	cases := []struct {
		endpoint     string
		wantTarget   string
		wantInsecure bool
		wantErr      bool
	}{
		{"localhost:4317", "localhost:4317", true, false},
		{"http://localhost:4317", "localhost:4317", true, false},
		{"https://collector:4317", "collector:4317", false, false},
		{"https://collector:4317/v1/traces", "collector:4317", false, false},
		{"http://", "", false, true},
	}
	for _, tc := range cases {
		target, insecure, err := parseTarget(tc.endpoint)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTarget(%q): want error", tc.endpoint)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTarget(%q): %v", tc.endpoint, err)
			continue
		}
		if target != tc.wantTarget || insecure != tc.wantInsecure {
			t.Errorf("parseTarget(%q) = %q/%v, want %q/%v",
				tc.endpoint, target, insecure, tc.wantTarget, tc.wantInsecure)
		}
	}
}

func TestSetGlobal_NoopProviders(t *testing.T) {
	p, err := NewProviders(context.Background(), "", "auth-api", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	// Must not panic with no-op providers.
	p.SetGlobal()
}
