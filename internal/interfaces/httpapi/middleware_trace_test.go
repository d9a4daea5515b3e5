package httpapi

import "testing"

func TestShouldTraceRequest_QuietPaths(t *testing.T) {
	paths := []string{"/healthz", "/health", "/livez", "/readyz", " /healthz ", "/v1/draft/version"}
	for _, path := range paths {
		if shouldTraceRequest(path) {
			t.Fatalf("expected no tracing for path %q", path)
		}
	}
}

func TestShouldTraceRequest_DraftPaths(t *testing.T) {
	paths := []string{"/v1/draft/state", "/v1/draft/picks", "/v1/admin/draft/start", "/"}
	for _, path := range paths {
		if !shouldTraceRequest(path) {
			t.Fatalf("expected tracing for path %q", path)
		}
	}
}
