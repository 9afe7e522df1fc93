package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// ShutdownTimeout bounds the wait for in-flight requests on Stop
const ShutdownTimeout = 20 * time.Second

type Server interface {
	Start()
	Stop() error
	Listen() (net.Listener, error)
	Serve(net.Listener)
}

// HTTPServer serves one handler over HTTP or HTTPS
type HTTPServer struct {
	name       string
	httpServer *http.Server
	tls        config.HTTPSConfig
	listening  chan struct{}
}

var _ Server = &HTTPServer{}

// NewHTTPServer wraps handler in a named server listening on addr. TLS is
// used when tls.Enabled is set.
func NewHTTPServer(name, addr string, handler http.Handler, tls config.HTTPSConfig) *HTTPServer {
	return &HTTPServer{
		name: name,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		tls:       tls,
		listening: make(chan struct{}),
	}
}

// HTTP exposes the underlying server for timeout tuning before Start
func (s *HTTPServer) HTTP() *http.Server {
	return s.httpServer
}

func (s *HTTPServer) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.httpServer.Addr)
}

// Serve blocks until the server is stopped. It exits the process on any
// other error.
func (s *HTTPServer) Serve(listener net.Listener) {
	ctx := context.Background()
	log := logger.With(ctx, logger.FieldBindAddress, s.httpServer.Addr, "server", s.name)

	var err error
	if s.tls.Enabled {
		if s.tls.CertFile == "" || s.tls.KeyFile == "" {
			check(fmt.Errorf("unspecified required --server-https-cert-file, --server-https-key-file"),
				"Can't start https server "+s.name)
		}
		log.Info("Serving with TLS")
		err = s.httpServer.ServeTLS(listener, s.tls.CertFile, s.tls.KeyFile)
	} else {
		log.Info("Serving without TLS")
		err = s.httpServer.Serve(listener)
	}

	check(err, s.name+" server terminated with errors")
	log.Info("Server terminated")
}

// Start is a convenience wrapper for Listen and Serve
func (s *HTTPServer) Start() {
	listener, err := s.Listen()
	check(err, "Unable to start "+s.name+" server")
	close(s.listening)
	s.Serve(listener)
}

// NotifyListening returns a channel closed once Start is listening
func (s *HTTPServer) NotifyListening() <-chan struct{} {
	return s.listening
}

func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Exit on error
func check(err error, msg string) {
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(context.Background(), err).Error(msg)
		os.Exit(1)
	}
}
