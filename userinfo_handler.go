/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/acronis/go-appkit/httpserver/middleware"
	"github.com/acronis/go-appkit/log"

	"github.com/acronis/go-resourceserver/authlete"
	"github.com/acronis/go-resourceserver/internal/apiutil"
	"github.com/acronis/go-resourceserver/userdb"
)

// UnknownSubjectChallenge is the RFC 6750 challenge returned when the remote service
// accepts the token but its subject is not present in the user database.
const UnknownSubjectChallenge = `Bearer error="invalid_token",error_description="The subject associated with the access token is unknown."`

// UserInfoAPI is the part of the remote authorization service API used for serving userinfo requests.
type UserInfoAPI interface {
	UserInfo(ctx context.Context, req authlete.UserInfoRequest) (authlete.UserInfoResponse, error)
	UserInfoIssue(ctx context.Context, req authlete.UserInfoIssueRequest) (authlete.UserInfoIssueResponse, error)
}

// UserInfoRequestHandler builds the userinfo response for a validated access token.
// The remote service decides which claims are requested; the handler resolves their
// values from the user database and lets the remote service assemble the final payload.
type UserInfoRequestHandler struct {
	api            UserInfoAPI
	users          userdb.Database
	loggerProvider func(ctx context.Context) log.FieldLogger
}

type userInfoRequestHandlerOptions struct {
	loggerProvider func(ctx context.Context) log.FieldLogger
}

// UserInfoRequestHandlerOption is an option for UserInfoRequestHandler.
type UserInfoRequestHandlerOption func(options *userInfoRequestHandlerOptions)

// WithUserInfoRequestHandlerLoggerProvider is an option to set a logger provider for UserInfoRequestHandler.
func WithUserInfoRequestHandlerLoggerProvider(
	loggerProvider func(ctx context.Context) log.FieldLogger,
) UserInfoRequestHandlerOption {
	return func(options *userInfoRequestHandlerOptions) {
		options.loggerProvider = loggerProvider
	}
}

// NewUserInfoRequestHandler creates a new UserInfoRequestHandler
// with the given remote API and user database.
func NewUserInfoRequestHandler(
	api UserInfoAPI, users userdb.Database, opts ...UserInfoRequestHandlerOption,
) *UserInfoRequestHandler {
	options := userInfoRequestHandlerOptions{loggerProvider: middleware.GetLoggerFromContext}
	for _, opt := range opts {
		opt(&options)
	}
	return &UserInfoRequestHandler{api: api, users: users, loggerProvider: options.loggerProvider}
}

// Handle forwards the token to the remote userinfo API and translates the verdict into an HTTP response.
// On the OK action it resolves the requested claims from the user database and obtains the final
// userinfo payload from the remote userinfo issue API.
func (h *UserInfoRequestHandler) Handle(ctx context.Context, token string) (*Response, error) {
	logger := apiutil.GetLoggerFromProvider(ctx, h.loggerProvider)

	uiResp, err := h.api.UserInfo(ctx, authlete.UserInfoRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	if uiResp.Action != authlete.ActionOK {
		statusCode, ok := statusCodeForAction(uiResp.Action)
		if !ok {
			return nil, fmt.Errorf("unexpected userinfo action %q", uiResp.Action)
		}
		return NewBearerErrorResponse(statusCode, uiResp.ResponseContent), nil
	}

	user := h.users.LookupBySubject(uiResp.Subject)
	if user == nil {
		logger.Warn("subject from introspected token is not present in the user database",
			log.String("subject", uiResp.Subject))
		return NewBearerErrorResponse(http.StatusUnauthorized, UnknownSubjectChallenge), nil
	}

	claimsJSON, err := collectClaims(user, uiResp.Claims)
	if err != nil {
		return nil, err
	}

	issueResp, err := h.api.UserInfoIssue(ctx, authlete.UserInfoIssueRequest{Token: token, Claims: claimsJSON})
	if err != nil {
		return nil, fmt.Errorf("userinfo issue request: %w", err)
	}
	if issueResp.Action != authlete.ActionOK {
		statusCode, ok := statusCodeForAction(issueResp.Action)
		if !ok {
			return nil, fmt.Errorf("unexpected userinfo issue action %q", issueResp.Action)
		}
		return NewBearerErrorResponse(statusCode, issueResp.ResponseContent), nil
	}
	return NewJSONResponse(http.StatusOK, issueResp.ResponseContent), nil
}

// collectClaims resolves the requested claim values from the user record
// and encodes them as a JSON object. Claims missing from the record are skipped.
// An empty result is encoded as "" so that the remote service sees no claims at all.
func collectClaims(user *userdb.User, claimNames []string) (string, error) {
	claims := make(map[string]interface{}, len(claimNames))
	for _, name := range claimNames {
		if value := user.GetClaim(name); value != nil {
			claims[name] = value
		}
	}
	if len(claims) == 0 {
		return "", nil
	}
	b, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	return string(b), nil
}
