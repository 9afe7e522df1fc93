package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
)

func newTestReporter(url string) *Reporter {
	r := NewReporter(hyperfleet.NewClient(url, time.Second), 2*time.Second)
	r.initialInterval = 5 * time.Millisecond
	return r
}

func testReport() *presenters.AdapterStatusCreateRequest {
	return &presenters.AdapterStatusCreateRequest{
		Adapter:            "dns",
		ObservedGeneration: 1,
		Conditions:         []api.ConditionInput{{Type: api.ConditionTypeApplied, Status: api.AdapterConditionTrue}},
	}
}

func TestReporter_RetriesServerErrors(t *testing.T) {
	RegisterTestingT(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(presenters.AdapterStatusResult{Adapter: "dns", ObservedGeneration: 1})
	}))
	defer server.Close()

	result, err := newTestReporter(server.URL).Report(context.Background(), "r1", testReport())
	Expect(err).NotTo(HaveOccurred())
	Expect(result.Adapter).To(Equal("dns"))
	Expect(atomic.LoadInt32(&calls)).To(BeEquivalentTo(3))
}

func TestReporter_DoesNotRetryClientErrors(t *testing.T) {
	RegisterTestingT(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestReporter(server.URL).Report(context.Background(), "r1", testReport())
	Expect(err).To(HaveOccurred())
	Expect(atomic.LoadInt32(&calls)).To(BeEquivalentTo(1))
}

func TestReporter_HonorsRetryAfter(t *testing.T) {
	RegisterTestingT(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(presenters.AdapterStatusResult{Adapter: "dns", ObservedGeneration: 1})
	}))
	defer server.Close()

	r := newTestReporter(server.URL)
	r.maxElapsed = 5 * time.Second
	start := time.Now()
	_, err := r.Report(context.Background(), "r1", testReport())
	Expect(err).NotTo(HaveOccurred())
	Expect(time.Since(start)).To(BeNumerically(">=", 900*time.Millisecond))
	Expect(atomic.LoadInt32(&calls)).To(BeEquivalentTo(2))
}
