package middleware

import (
	"net/http"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

func newTestMasker(enabled bool) *MaskingMiddleware {
	cfg := config.NewLoggingConfig()
	cfg.Masking.Enabled = enabled
	return NewMaskingMiddleware(cfg)
}

func TestMaskHeaders(t *testing.T) {
	RegisterTestingT(t)

	headers := http.Header{
		"Authorization": {"Bearer token123"},
		"Cookie":        {"a=1", "b=2"},
		"X-Api-Key":     {"k"},
		"Content-Type":  {"application/json"},
		"X-Request-Id":  {"pulse-1"},
	}

	masked := newTestMasker(true).MaskHeaders(headers)
	Expect(masked.Get("Authorization")).To(Equal(RedactedValue))
	Expect(masked["Cookie"]).To(Equal([]string{RedactedValue, RedactedValue}))
	Expect(masked.Get("X-Api-Key")).To(Equal(RedactedValue))
	Expect(masked.Get("Content-Type")).To(Equal("application/json"))
	Expect(masked.Get("X-Request-Id")).To(Equal("pulse-1"))
	Expect(headers.Get("Authorization")).To(Equal("Bearer token123"), "input must not be modified")

	Expect(newTestMasker(false).MaskHeaders(headers)).To(Equal(headers))
}

func TestMaskBody(t *testing.T) {
	RegisterTestingT(t)

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "credentials inside a resource spec",
			body:     `{"kind":"Cluster","name":"prod","spec":{"region":"eu","pull_secret":"abc","provider":{"api_key":"k","Token":"t"}}}`,
			expected: `{"kind":"Cluster","name":"prod","spec":{"region":"eu","pull_secret":"***REDACTED***","provider":{"api_key":"***REDACTED***","Token":"***REDACTED***"}}}`,
		},
		{
			name:     "adapter report passes through",
			body:     `{"adapter":"dns","observed_generation":2,"conditions":[{"type":"Available","status":"True"}]}`,
			expected: `{"adapter":"dns","observed_generation":2,"conditions":[{"type":"Available","status":"True"}]}`,
		},
		{
			name:     "arrays of objects",
			body:     `[{"password":"p"},[{"credentials":{"user":"u"}}]]`,
			expected: `[{"password":"***REDACTED***"},[{"credentials":"***REDACTED***"}]]`,
		},
		{
			name:     "scalar JSON",
			body:     `"secret"`,
			expected: `"secret"`,
		},
	}
	m := newTestMasker(true)
	for _, tt := range tests {
		Expect(m.MaskBody([]byte(tt.body))).To(MatchJSON(tt.expected), tt.name)
	}

	Expect(m.MaskBody([]byte("password=p"))).To(Equal([]byte("password=p")))
	Expect(m.MaskBody(nil)).To(BeEmpty())
	Expect(newTestMasker(false).MaskBody([]byte(`{"password":"p"}`))).To(MatchJSON(`{"password":"p"}`))
}

func TestSensitiveMatching(t *testing.T) {
	RegisterTestingT(t)

	m := NewMaskingMiddleware(&config.LoggingConfig{Masking: config.MaskingConfig{
		Enabled:          true,
		SensitiveHeaders: "Authorization, X-API-Key",
		SensitiveFields:  "secret,token",
	}})

	Expect(m.isSensitiveHeader("authorization")).To(BeTrue())
	Expect(m.isSensitiveHeader("X-Api-Key")).To(BeTrue())
	Expect(m.isSensitiveHeader("X-API-Key-Id")).To(BeFalse())
	Expect(m.isSensitiveHeader("User-Agent")).To(BeFalse())

	Expect(m.isSensitiveField("client_secret")).To(BeTrue())
	Expect(m.isSensitiveField("RefreshToken")).To(BeTrue())
	Expect(m.isSensitiveField("generation")).To(BeFalse())
	Expect(m.isSensitiveField("password")).To(BeFalse())
}
