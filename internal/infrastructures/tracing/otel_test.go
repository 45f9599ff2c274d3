package tracing

import "testing"

func TestNormalizeJaegerCollector(t *testing.T) {
	tests := map[string]string{
		"":                                   "http://localhost:14268/api/traces",
		"jaeger:14268":                       "http://jaeger:14268/api/traces",
		"http://jaeger:14268/":               "http://jaeger:14268/api/traces",
		" https://traces.example/api/traces": "https://traces.example/api/traces",
	}

	for in, want := range tests {
		if got := normalizeJaegerCollector(in); got != want {
			t.Fatalf("unexpected endpoint for %q: got %s want %s", in, got, want)
		}
	}
}
