package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "fly header wins", headers: map[string]string{"Fly-Client-IP": "203.0.113.7", "X-Real-IP": "198.51.100.1"}, remote: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": " 198.51.100.9 , 10.0.0.2"}, remote: "10.0.0.1:5000", want: "198.51.100.9"},
		{name: "garbage header skipped", headers: map[string]string{"X-Forwarded-For": "unknown"}, remote: "192.0.2.4:8080", want: "192.0.2.4"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "nothing usable", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/draft/state", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := resolveClientIP(r); got != tt.want {
				t.Fatalf("resolveClientIP()=%q want=%q", got, tt.want)
			}
		})
	}
}
