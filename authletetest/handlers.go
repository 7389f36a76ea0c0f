/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package authletetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/acronis/go-resourceserver/authlete"
)

// Challenges produced by the default handlers. They mimic the response content
// the real authorization service precomputes for resource servers.
const (
	ChallengeInvalidRequest    = `Bearer error="invalid_request",error_description="The request does not contain a token."`
	ChallengeInvalidToken      = `Bearer error="invalid_token",error_description="The access token is invalid."`
	ChallengeInsufficientScope = `Bearer error="insufficient_scope",error_description="The access token does not cover the required scopes."`
	ChallengeSubjectMismatch   = `Bearer error="invalid_token",error_description="The access token is not associated with the required subject."`
	ChallengeOpenIDScopeNeeded = `Bearer error="insufficient_scope",error_description="The access token does not cover the openid scope."`
)

// HTTPIntrospector is an interface for overriding the introspection verdict in tests.
type HTTPIntrospector interface {
	Introspect(r *http.Request, req authlete.IntrospectionRequest) (authlete.IntrospectionResponse, error)
}

// HTTPIntrospectorFunc is a function that implements HTTPIntrospector interface.
type HTTPIntrospectorFunc func(r *http.Request, req authlete.IntrospectionRequest) (authlete.IntrospectionResponse, error)

// Introspect implements HTTPIntrospector interface.
func (f HTTPIntrospectorFunc) Introspect(
	r *http.Request, req authlete.IntrospectionRequest,
) (authlete.IntrospectionResponse, error) {
	return f(r, req)
}

// IntrospectionHandler is an implementation of a handler mocking the token introspection API.
// Unless Introspector is set, it parses the token minted by MakeTokenString and produces
// the action/challenge verdict the real service would.
type IntrospectionHandler struct {
	servedCount  atomic.Uint64
	Introspector HTTPIntrospector
}

func (h *IntrospectionHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	h.servedCount.Add(1)

	var req authlete.IntrospectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, fmt.Sprintf("Error decoding request: %v", err), http.StatusBadRequest)
		return
	}

	var resp authlete.IntrospectionResponse
	if h.Introspector != nil {
		var err error
		if resp, err = h.Introspector.Introspect(r, req); err != nil {
			http.Error(rw, fmt.Sprintf("Token introspection failed: %v", err), http.StatusInternalServerError)
			return
		}
	} else {
		resp = defaultIntrospectionResponse(req)
	}

	respondJSON(rw, resp)
}

// ServedCount returns the number of times the handler has been served.
func (h *IntrospectionHandler) ServedCount() uint64 {
	return h.servedCount.Load()
}

// ResetServedCount resets the number of times the handler has been served.
func (h *IntrospectionHandler) ResetServedCount() {
	h.servedCount.Store(0)
}

func defaultIntrospectionResponse(req authlete.IntrospectionRequest) authlete.IntrospectionResponse {
	if req.Token == "" {
		return authlete.IntrospectionResponse{
			Action: authlete.ActionBadRequest, ResponseContent: ChallengeInvalidRequest}
	}
	claims, err := parseTokenClaims(req.Token)
	if err != nil {
		return authlete.IntrospectionResponse{
			Action: authlete.ActionUnauthorized, ResponseContent: ChallengeInvalidToken, Existent: false}
	}
	if !scopesCovered(claims.Scope, req.Scopes) {
		return authlete.IntrospectionResponse{
			Action: authlete.ActionForbidden, ResponseContent: ChallengeInsufficientScope,
			Subject: claims.Subject, Scopes: claims.Scope, Existent: true, Usable: true}
	}
	if req.Subject != "" && req.Subject != claims.Subject {
		return authlete.IntrospectionResponse{
			Action: authlete.ActionForbidden, ResponseContent: ChallengeSubjectMismatch,
			Subject: claims.Subject, Scopes: claims.Scope, Existent: true, Usable: true}
	}
	return authlete.IntrospectionResponse{
		Action:     authlete.ActionOK,
		Subject:    claims.Subject,
		Scopes:     claims.Scope,
		ClientID:   1,
		ExpiresAt:  claims.ExpiresAt.Unix(),
		Existent:   true,
		Usable:     true,
		Sufficient: true,
	}
}

// UserInfoHandler is an implementation of a handler mocking the userinfo API.
// The claims it requests are derived from the token's scopes
// ("profile" and "email" map to the standard OIDC claim names).
type UserInfoHandler struct {
	servedCount atomic.Uint64
}

func (h *UserInfoHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	h.servedCount.Add(1)

	var req authlete.UserInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, fmt.Sprintf("Error decoding request: %v", err), http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		respondJSON(rw, authlete.UserInfoResponse{
			Action: authlete.ActionBadRequest, ResponseContent: ChallengeInvalidRequest})
		return
	}
	claims, err := parseTokenClaims(req.Token)
	if err != nil {
		respondJSON(rw, authlete.UserInfoResponse{
			Action: authlete.ActionUnauthorized, ResponseContent: ChallengeInvalidToken})
		return
	}
	if !scopesCovered(claims.Scope, []string{"openid"}) {
		respondJSON(rw, authlete.UserInfoResponse{
			Action: authlete.ActionForbidden, ResponseContent: ChallengeOpenIDScopeNeeded})
		return
	}

	respondJSON(rw, authlete.UserInfoResponse{
		Action:   authlete.ActionOK,
		Subject:  claims.Subject,
		Claims:   claimNamesForScopes(claims.Scope),
		ClientID: 1,
	})
}

// ServedCount returns the number of times the handler has been served.
func (h *UserInfoHandler) ServedCount() uint64 {
	return h.servedCount.Load()
}

// ResetServedCount resets the number of times the handler has been served.
func (h *UserInfoHandler) ResetServedCount() {
	h.servedCount.Store(0)
}

// UserInfoIssueHandler is an implementation of a handler mocking the userinfo issue API.
// It assembles the final userinfo payload from the token subject and the claim values
// resolved by the resource server.
type UserInfoIssueHandler struct {
	servedCount atomic.Uint64
}

func (h *UserInfoIssueHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	h.servedCount.Add(1)

	var req authlete.UserInfoIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, fmt.Sprintf("Error decoding request: %v", err), http.StatusBadRequest)
		return
	}

	claims, err := parseTokenClaims(req.Token)
	if err != nil {
		respondJSON(rw, authlete.UserInfoIssueResponse{
			Action: authlete.ActionUnauthorized, ResponseContent: ChallengeInvalidToken})
		return
	}

	payload := map[string]interface{}{"sub": claims.Subject}
	if req.Claims != "" {
		resolvedClaims := make(map[string]interface{})
		if err = json.Unmarshal([]byte(req.Claims), &resolvedClaims); err != nil {
			http.Error(rw, fmt.Sprintf("Error decoding claims: %v", err), http.StatusBadRequest)
			return
		}
		for name, value := range resolvedClaims {
			payload[name] = value
		}
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		http.Error(rw, fmt.Sprintf("Error encoding userinfo payload: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(rw, authlete.UserInfoIssueResponse{
		Action: authlete.ActionOK, ResponseContent: string(payloadBytes)})
}

// ServedCount returns the number of times the handler has been served.
func (h *UserInfoIssueHandler) ServedCount() uint64 {
	return h.servedCount.Load()
}

// ResetServedCount resets the number of times the handler has been served.
func (h *UserInfoIssueHandler) ResetServedCount() {
	h.servedCount.Store(0)
}

func respondJSON(rw http.ResponseWriter, response interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(response); err != nil {
		http.Error(rw, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
	}
}

func scopesCovered(tokenScopes, requiredScopes []string) bool {
	for _, required := range requiredScopes {
		found := false
		for _, scope := range tokenScopes {
			if scope == required {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func claimNamesForScopes(scopes []string) []string {
	var names []string
	for _, scope := range scopes {
		switch scope {
		case "profile":
			names = append(names, "name", "given_name", "family_name", "locale")
		case "email":
			names = append(names, "email", "email_verified")
		}
	}
	return names
}
