/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package authletetest

import (
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/acronis/go-appkit/testutil"

	"github.com/acronis/go-resourceserver/authlete"
)

const localhostWithDynamicPortAddr = "127.0.0.1:0"

// HTTPServerOption is an option for HTTPServer.
type HTTPServerOption func(s *HTTPServer)

// WithHTTPAddress is an option to set HTTP server address.
func WithHTTPAddress(addr string) HTTPServerOption {
	return func(s *HTTPServer) {
		s.addr.Store(addr)
	}
}

// WithIntrospectionHandler is an option to set custom handler for POST /api/auth/introspection.
func WithIntrospectionHandler(handler http.Handler) HTTPServerOption {
	return func(s *HTTPServer) {
		s.IntrospectionHandler = handler
	}
}

// WithHTTPIntrospector is an option to set HTTPIntrospector for IntrospectionHandler
// which will be used for POST /api/auth/introspection.
func WithHTTPIntrospector(introspector HTTPIntrospector) HTTPServerOption {
	return func(s *HTTPServer) {
		s.IntrospectionHandler = &IntrospectionHandler{Introspector: introspector}
	}
}

// WithUserInfoHandler is an option to set custom handler for POST /api/auth/userinfo.
func WithUserInfoHandler(handler http.Handler) HTTPServerOption {
	return func(s *HTTPServer) {
		s.UserInfoHandler = handler
	}
}

// WithUserInfoIssueHandler is an option to set custom handler for POST /api/auth/userinfo/issue.
func WithUserInfoIssueHandler(handler http.Handler) HTTPServerOption {
	return func(s *HTTPServer) {
		s.UserInfoIssueHandler = handler
	}
}

// WithServiceCredentials is an option that makes the server check HTTP basic auth on every
// request and respond with 401 unless it matches the given service API credentials.
func WithServiceCredentials(apiKey, apiSecret string) HTTPServerOption {
	return func(s *HTTPServer) {
		s.serviceAPIKey, s.serviceAPISecret = apiKey, apiSecret
		s.checkCredentials = true
	}
}

// WithHTTPMiddleware is an option to wrap the server's router with the given middleware.
func WithHTTPMiddleware(mw func(http.Handler) http.Handler) HTTPServerOption {
	return func(s *HTTPServer) {
		s.middleware = mw
	}
}

// HTTPServer is a mock authorization service server for testing purposes.
type HTTPServer struct {
	*http.Server
	addr                 atomic.Value
	middleware           func(http.Handler) http.Handler
	checkCredentials     bool
	serviceAPIKey        string
	serviceAPISecret     string
	IntrospectionHandler http.Handler
	UserInfoHandler      http.Handler
	UserInfoIssueHandler http.Handler
	Router               *http.ServeMux
}

// NewHTTPServer creates a new HTTPServer with provided options.
func NewHTTPServer(options ...HTTPServerOption) *HTTPServer {
	s := &HTTPServer{}
	for _, opt := range options {
		opt(s)
	}

	if s.IntrospectionHandler == nil {
		s.IntrospectionHandler = &IntrospectionHandler{}
	}
	if s.UserInfoHandler == nil {
		s.UserInfoHandler = &UserInfoHandler{}
	}
	if s.UserInfoIssueHandler == nil {
		s.UserInfoIssueHandler = &UserInfoIssueHandler{}
	}

	s.Router = http.NewServeMux()
	s.Router.Handle(authlete.IntrospectionPath, s.IntrospectionHandler)
	s.Router.Handle(authlete.UserInfoPath, s.UserInfoHandler)
	s.Router.Handle(authlete.UserInfoIssuePath, s.UserInfoIssueHandler)

	var handler http.Handler = s.Router
	if s.checkCredentials {
		handler = s.requireServiceCredentials(handler)
	}
	if s.middleware != nil {
		handler = s.middleware(handler)
	}
	// nolint:gosec // This server is used for testing purposes only.
	s.Server = &http.Server{Handler: handler}

	return s
}

// URL method returns the URL of the server.
func (s *HTTPServer) URL() string {
	if srvURL := s.addr.Load(); srvURL != nil {
		return "http://" + srvURL.(string)
	}
	return ""
}

// Start starts the HTTPServer.
func (s *HTTPServer) Start() error {
	addr, ok := s.addr.Load().(string)
	if !ok {
		addr = localhostWithDynamicPortAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}
	s.addr.Store(ln.Addr().String())

	go func() { _ = s.Server.Serve(ln) }()

	return nil
}

// StartAndWaitForReady starts the server waits for the server to start listening.
func (s *HTTPServer) StartAndWaitForReady(timeout time.Duration) error {
	if err := s.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return testutil.WaitListeningServer(s.addr.Load().(string), timeout)
}

func (s *HTTPServer) requireServiceCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		apiKey, apiSecret, ok := r.BasicAuth()
		if !ok || apiKey != s.serviceAPIKey || apiSecret != s.serviceAPISecret {
			rw.Header().Set("WWW-Authenticate", `Basic realm="authlete"`)
			http.Error(rw, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(rw, r)
	})
}
