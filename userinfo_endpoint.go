/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"context"
	"net/http"
)

// UserInfoEndpoint serves OpenID Connect userinfo requests.
// It validates the access token and forwards it to the userinfo request handler;
// the success payload is assembled by the remote authorization service.
type UserInfoEndpoint struct {
	endpoint *Endpoint
	handler  *UserInfoRequestHandler
}

// NewUserInfoEndpoint creates a new UserInfoEndpoint
// with the given access token validator and userinfo request handler.
func NewUserInfoEndpoint(
	validator AccessTokenValidator, handler *UserInfoRequestHandler, opts ...EndpointOption,
) *UserInfoEndpoint {
	return &UserInfoEndpoint{endpoint: NewEndpoint(validator, opts...), handler: handler}
}

func (ep *UserInfoEndpoint) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ep.endpoint.Process(rw, r, ep.handle)
	case http.MethodPost:
		ep.endpoint.ProcessRequiringContentType(rw, r, ContentTypeFormURLEncoded, ep.handle)
	default:
		http.Error(rw, "Only GET and POST methods are allowed", http.StatusMethodNotAllowed)
	}
}

func (ep *UserInfoEndpoint) handle(ctx context.Context, r *http.Request) (*Response, error) {
	result, err := ep.endpoint.ValidateAccessToken(r, nil, "")
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return result.ErrorResponse, nil
	}
	return ep.handler.Handle(ctx, ep.endpoint.ExtractAccessToken(r))
}
