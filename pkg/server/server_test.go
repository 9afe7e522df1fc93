package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/health"
)

func TestHealthRouter_Readiness(t *testing.T) {
	RegisterTestingT(t)
	router := HealthRouter(nil)
	state := health.GetReadinessState()

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	Expect(get("/healthz").Code).To(Equal(http.StatusOK))

	state.SetReady()
	Expect(get("/readyz").Code).To(Equal(http.StatusOK))

	state.SetShuttingDown()
	w := get("/readyz")
	Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(w.Body.String()).To(ContainSubstring("shutting_down"))

	state.SetReady()
	state.AddCheck("api", func(context.Context) error { return fmt.Errorf("connection refused") })
	w = get("/readyz")
	Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(w.Body.String()).To(ContainSubstring("api check failed"))

	state.RemoveCheck("api")
	Expect(get("/readyz").Code).To(Equal(http.StatusOK))
	Expect(get("/missing").Code).To(Equal(http.StatusNotFound))
}

func TestMetricsServer_ServesRegistry(t *testing.T) {
	RegisterTestingT(t)

	s := NewMetricsServer(&config.ListenerConfig{BindAddress: "127.0.0.1:0"}, config.HTTPSConfig{})
	listener, err := s.Listen()
	Expect(err).NotTo(HaveOccurred())

	done := make(chan struct{})
	go func() {
		s.Serve(listener)
		close(done)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/metrics")
	Expect(err).NotTo(HaveOccurred())
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	_ = resp.Body.Close()

	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	Expect(string(body)).To(ContainSubstring("go_goroutines"))

	Expect(s.Stop()).To(Succeed())
	Eventually(done).Should(BeClosed())
}

func TestHTTPSFor(t *testing.T) {
	RegisterTestingT(t)

	tls := config.HTTPSConfig{Enabled: false, CertFile: "tls.crt", KeyFile: "tls.key"}
	Expect(httpsFor(true, tls)).To(Equal(config.HTTPSConfig{Enabled: true, CertFile: "tls.crt", KeyFile: "tls.key"}))
	Expect(httpsFor(false, config.HTTPSConfig{Enabled: true}).Enabled).To(BeFalse())
}
