/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/acronis/go-appkit/httpserver/middleware"
	"github.com/acronis/go-appkit/log"

	"github.com/acronis/go-resourceserver/internal/apiutil"
)

// ErrMessageSomethingWentWrong is the body of the generic 500 response
// that replaces any unexpected handler failure. No failure detail is leaked to the caller.
var ErrMessageSomethingWentWrong = "Something went wrong."

// HandlerTask builds the response for a single request.
// A returned error (or a panic) is translated into the generic 500 response by Endpoint.Process.
type HandlerTask func(ctx context.Context, r *http.Request) (*Response, error)

// AccessTokenValidator validates an access token against the remote authorization service.
type AccessTokenValidator interface {
	Validate(ctx context.Context, token string, requiredScopes []string, requiredSubject string) (ValidationResult, error)
}

// Endpoint is a request-handling helper composed by concrete resource endpoints.
// It runs handler tasks, guards them with the content-type gate and the generic
// failure boundary, and assembles+sends their responses.
type Endpoint struct {
	validator      AccessTokenValidator
	loggerProvider func(ctx context.Context) log.FieldLogger
}

type endpointOptions struct {
	loggerProvider func(ctx context.Context) log.FieldLogger
}

// EndpointOption is an option for Endpoint.
type EndpointOption func(options *endpointOptions)

// WithEndpointLoggerProvider is an option to set a logger provider for Endpoint.
func WithEndpointLoggerProvider(loggerProvider func(ctx context.Context) log.FieldLogger) EndpointOption {
	return func(options *endpointOptions) {
		options.loggerProvider = loggerProvider
	}
}

// NewEndpoint creates a new Endpoint with the given access token validator.
func NewEndpoint(validator AccessTokenValidator, opts ...EndpointOption) *Endpoint {
	options := endpointOptions{loggerProvider: middleware.GetLoggerFromContext}
	for _, opt := range opts {
		opt(&options)
	}
	return &Endpoint{validator: validator, loggerProvider: options.loggerProvider}
}

// Process runs the task and sends its response.
// Any failure (returned error or panic) is logged and replaced
// by the generic 500 response; there is no retry.
func (e *Endpoint) Process(rw http.ResponseWriter, r *http.Request, task HandlerTask) {
	logger := apiutil.GetLoggerFromProvider(r.Context(), e.loggerProvider)
	resp, err := runTask(r.Context(), r, task)
	if err != nil {
		logger.Error("endpoint task failed", log.Error(err))
		resp = NewPlainTextResponse(http.StatusInternalServerError, ErrMessageSomethingWentWrong)
	}
	Respond(rw, resp, logger)
}

// ProcessRequiringContentType runs the task like Process but only after checking
// that the request declares the required content type. On mismatch it responds
// with 400 without invoking the task at all.
func (e *Endpoint) ProcessRequiringContentType(
	rw http.ResponseWriter, r *http.Request, contentType string, task HandlerTask,
) {
	if r.Header.Get("Content-Type") != contentType {
		logger := apiutil.GetLoggerFromProvider(r.Context(), e.loggerProvider)
		Respond(rw, NewPlainTextResponse(http.StatusBadRequest,
			fmt.Sprintf("Request 'Content-Type' must be '%s'.", contentType)), logger)
		return
	}
	e.Process(rw, r, task)
}

// ExtractAccessToken extracts the access token from the current request (see AccessTokenFromRequest).
func (e *Endpoint) ExtractAccessToken(r *http.Request) string {
	return AccessTokenFromRequest(r)
}

// ValidateAccessToken extracts the access token from the request and hands it to the validator
// together with the optional scope and subject constraints. The result is returned unmodified,
// the caller is responsible for branching on it.
func (e *Endpoint) ValidateAccessToken(
	r *http.Request, requiredScopes []string, requiredSubject string,
) (ValidationResult, error) {
	return e.validator.Validate(r.Context(), AccessTokenFromRequest(r), requiredScopes, requiredSubject)
}

func runTask(ctx context.Context, r *http.Request, task HandlerTask) (resp *Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, fmt.Errorf("task panic: %v", p)
		}
	}()
	return task(ctx, r)
}
