/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package authlete

// Action tells the resource server how to react to an API call result.
// The remote service precomputes the RFC 6750 response content
// (a WWW-Authenticate challenge or a success body) for each action.
type Action string

const (
	ActionOK                  Action = "OK"
	ActionBadRequest          Action = "BAD_REQUEST"
	ActionUnauthorized        Action = "UNAUTHORIZED"
	ActionForbidden           Action = "FORBIDDEN"
	ActionInternalServerError Action = "INTERNAL_SERVER_ERROR"
)

// IntrospectionRequest is a request for the token introspection API.
// Scopes and Subject are optional constraints that the remote service
// checks against the token in addition to its validity.
type IntrospectionRequest struct {
	Token   string   `json:"token"`
	Scopes  []string `json:"scopes,omitempty"`
	Subject string   `json:"subject,omitempty"`
}

// IntrospectionResponse is a response from the token introspection API.
type IntrospectionResponse struct {
	Action          Action   `json:"action"`
	ResponseContent string   `json:"responseContent,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	Scopes          []string `json:"scopes,omitempty"`
	ClientID        int64    `json:"clientId,omitempty"`
	ExpiresAt       int64    `json:"expiresAt,omitempty"`
	Existent        bool     `json:"existent,omitempty"`
	Usable          bool     `json:"usable,omitempty"`
	Sufficient      bool     `json:"sufficient,omitempty"`
}

// UserInfoRequest is a request for the userinfo API.
type UserInfoRequest struct {
	Token string `json:"token"`
}

// UserInfoResponse is a response from the userinfo API.
// Claims lists the claim names the remote service wants the resource server
// to resolve from its user database.
type UserInfoResponse struct {
	Action          Action   `json:"action"`
	ResponseContent string   `json:"responseContent,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	Claims          []string `json:"claims,omitempty"`
	ClientID        int64    `json:"clientId,omitempty"`
}

// UserInfoIssueRequest is a request for the userinfo issue API.
// Claims carries the resolved claim values as a JSON object string.
type UserInfoIssueRequest struct {
	Token  string `json:"token"`
	Claims string `json:"claims,omitempty"`
}

// UserInfoIssueResponse is a response from the userinfo issue API.
// On the OK action ResponseContent contains the userinfo payload
// that should be returned to the caller as-is.
type UserInfoIssueResponse struct {
	Action          Action `json:"action"`
	ResponseContent string `json:"responseContent,omitempty"`
}
