package middleware

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

// RedactedValue replaces every masked header value and body field
const RedactedValue = "***REDACTED***"

// MaskingMiddleware redacts sensitive HTTP headers and JSON body fields
// before they reach the request log.
type MaskingMiddleware struct {
	enabled          bool
	sensitiveHeaders []string
	sensitiveFields  []string
}

func NewMaskingMiddleware(cfg *config.LoggingConfig) *MaskingMiddleware {
	fields := cfg.GetSensitiveFieldsList()
	for i := range fields {
		fields[i] = strings.ToLower(fields[i])
	}
	return &MaskingMiddleware{
		enabled:          cfg.Masking.Enabled,
		sensitiveHeaders: cfg.GetSensitiveHeadersList(),
		sensitiveFields:  fields,
	}
}

// MaskHeaders copies headers, replacing every value of a sensitive header.
func (m *MaskingMiddleware) MaskHeaders(headers http.Header) http.Header {
	if !m.enabled {
		return headers
	}
	masked := headers.Clone()
	for key, values := range masked {
		if m.isSensitiveHeader(key) {
			masked[key] = slices.Repeat([]string{RedactedValue}, len(values))
		}
	}
	return masked
}

// MaskBody redacts sensitive fields of a JSON object or array.
// Bodies that are not JSON are returned unchanged.
func (m *MaskingMiddleware) MaskBody(body []byte) []byte {
	if !m.enabled || len(body) == 0 {
		return body
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	switch data.(type) {
	case map[string]interface{}, []interface{}:
		m.maskValue(data)
	default:
		return body
	}

	masked, err := json.Marshal(data)
	if err != nil {
		return body
	}
	return masked
}

func (m *MaskingMiddleware) maskValue(value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, nested := range v {
			if m.isSensitiveField(key) {
				v[key] = RedactedValue
				continue
			}
			m.maskValue(nested)
		}
	case []interface{}:
		for _, item := range v {
			m.maskValue(item)
		}
	}
}

func (m *MaskingMiddleware) isSensitiveHeader(header string) bool {
	return slices.ContainsFunc(m.sensitiveHeaders, func(sensitive string) bool {
		return strings.EqualFold(header, sensitive)
	})
}

// isSensitiveField matches field names containing any sensitive keyword
func (m *MaskingMiddleware) isSensitiveField(field string) bool {
	field = strings.ToLower(field)
	return slices.ContainsFunc(m.sensitiveFields, func(sensitive string) bool {
		return strings.Contains(field, sensitive)
	})
}
