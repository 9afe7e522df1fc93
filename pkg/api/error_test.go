package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

func TestSendNotFound(t *testing.T) {
	RegisterTestingT(t)

	req := httptest.NewRequest(http.MethodGet, "/api/hyperfleet/v1/widgets", nil)
	req = req.WithContext(context.WithValue(req.Context(), logger.ReqIDKey, "req-1"))
	rec := httptest.NewRecorder()
	SendNotFound(rec, req)

	Expect(rec.Code).To(Equal(http.StatusNotFound))
	Expect(rec.Header().Get("Content-Type")).To(Equal("application/problem+json"))
	Expect(rec.Header().Get("Retry-After")).To(BeEmpty())

	var body map[string]interface{}
	Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	Expect(body["status"]).To(BeEquivalentTo(404))
	Expect(body["instance"]).To(Equal("/api/hyperfleet/v1/widgets"))
	Expect(body["trace_id"]).To(Equal("req-1"))
	Expect(body["detail"]).To(ContainSubstring("/api/hyperfleet/v1/widgets"))
}

func TestSendPanic(t *testing.T) {
	RegisterTestingT(t)

	rec := httptest.NewRecorder()
	SendPanic(rec, httptest.NewRequest(http.MethodGet, "/api/hyperfleet/v1/config", nil))

	Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	Expect(rec.Header().Get("Retry-After")).To(Equal("1"))
	Expect(rec.Body.String()).To(ContainSubstring("check the log of the service"))
}
