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

	"github.com/acronis/go-resourceserver/authlete"
	"github.com/acronis/go-resourceserver/internal/apiutil"
	"github.com/acronis/go-resourceserver/internal/metrics"
)

const tokenValidatorPromSource = "token_validator"

// MissingTokenChallenge is the RFC 6750 challenge returned when no access token
// is supplied by any of the extraction channels. It is built locally,
// the authorization service is not called for an absent token.
const MissingTokenChallenge = `Bearer error="invalid_token",error_description="The access token is missing."`

// IntrospectionAPI is the part of the remote authorization service API used for token validation.
type IntrospectionAPI interface {
	Introspect(ctx context.Context, req authlete.IntrospectionRequest) (authlete.IntrospectionResponse, error)
}

// ValidationResult is the outcome of validating an access token.
// On failure ErrorResponse carries a ready-made RFC 6750 error response;
// consumers branch on IsValid and never construct the result themselves.
type ValidationResult struct {
	IsValid       bool
	Introspection *authlete.IntrospectionResponse
	ErrorResponse *Response
}

// TokenValidator validates access tokens by delegating to the remote introspection API.
type TokenValidator struct {
	api            IntrospectionAPI
	loggerProvider func(ctx context.Context) log.FieldLogger
	promMetrics    *metrics.PrometheusMetrics
}

type tokenValidatorOptions struct {
	loggerProvider             func(ctx context.Context) log.FieldLogger
	prometheusLibInstanceLabel string
}

// TokenValidatorOption is an option for TokenValidator.
type TokenValidatorOption func(options *tokenValidatorOptions)

// WithTokenValidatorLoggerProvider is an option to set a logger provider for TokenValidator.
func WithTokenValidatorLoggerProvider(loggerProvider func(ctx context.Context) log.FieldLogger) TokenValidatorOption {
	return func(options *tokenValidatorOptions) {
		options.loggerProvider = loggerProvider
	}
}

// WithTokenValidatorPrometheusLibInstanceLabel is an option to set a label
// for Prometheus metrics that are used by TokenValidator.
func WithTokenValidatorPrometheusLibInstanceLabel(label string) TokenValidatorOption {
	return func(options *tokenValidatorOptions) {
		options.prometheusLibInstanceLabel = label
	}
}

// NewTokenValidator creates a new TokenValidator with the given introspection API.
func NewTokenValidator(api IntrospectionAPI, opts ...TokenValidatorOption) *TokenValidator {
	options := tokenValidatorOptions{loggerProvider: middleware.GetLoggerFromContext}
	for _, opt := range opts {
		opt(&options)
	}
	return &TokenValidator{
		api:            api,
		loggerProvider: options.loggerProvider,
		promMetrics:    metrics.GetPrometheusMetrics(options.prometheusLibInstanceLabel, tokenValidatorPromSource),
	}
}

// Validate checks the access token against the remote introspection API.
// An absent token short-circuits to an invalid result without a remote call.
// A remote-call failure is returned as an error and is expected to be surfaced
// by the endpoint's generic failure boundary.
func (v *TokenValidator) Validate(
	ctx context.Context, token string, requiredScopes []string, requiredSubject string,
) (ValidationResult, error) {
	logger := apiutil.GetLoggerFromProvider(ctx, v.loggerProvider)

	if token == "" {
		v.promMetrics.IncTokenValidationsTotal(metrics.TokenValidationStatusMissing)
		return ValidationResult{
			ErrorResponse: NewBearerErrorResponse(http.StatusUnauthorized, MissingTokenChallenge),
		}, nil
	}

	introspection, err := v.api.Introspect(ctx, authlete.IntrospectionRequest{
		Token:   token,
		Scopes:  requiredScopes,
		Subject: requiredSubject,
	})
	if err != nil {
		v.promMetrics.IncTokenValidationsTotal(metrics.TokenValidationStatusError)
		return ValidationResult{}, fmt.Errorf("introspect token: %w", err)
	}

	if introspection.Action == authlete.ActionOK {
		v.promMetrics.IncTokenValidationsTotal(metrics.TokenValidationStatusValid)
		return ValidationResult{IsValid: true, Introspection: &introspection}, nil
	}

	statusCode, ok := statusCodeForAction(introspection.Action)
	if !ok {
		v.promMetrics.IncTokenValidationsTotal(metrics.TokenValidationStatusError)
		return ValidationResult{}, fmt.Errorf("unexpected introspection action %q", introspection.Action)
	}
	logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
		logFunc("token was introspected, but it is not usable",
			log.String("introspection_action", string(introspection.Action)))
	})
	v.promMetrics.IncTokenValidationsTotal(metrics.TokenValidationStatusInvalid)
	return ValidationResult{
		Introspection: &introspection,
		ErrorResponse: NewBearerErrorResponse(statusCode, introspection.ResponseContent),
	}, nil
}

// statusCodeForAction maps a non-OK remote action to the HTTP status code of the error response.
func statusCodeForAction(action authlete.Action) (int, bool) {
	switch action {
	case authlete.ActionBadRequest:
		return http.StatusBadRequest, true
	case authlete.ActionUnauthorized:
		return http.StatusUnauthorized, true
	case authlete.ActionForbidden:
		return http.StatusForbidden, true
	case authlete.ActionInternalServerError:
		return http.StatusInternalServerError, true
	}
	return 0, false
}
