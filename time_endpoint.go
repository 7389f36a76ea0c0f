/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// TimeEndpoint serves the current UTC time to callers presenting a valid access token.
// It supports GET and POST; POST requires the form-urlencoded content type
// so that the token may be carried in the request body.
type TimeEndpoint struct {
	endpoint *Endpoint
}

// NewTimeEndpoint creates a new TimeEndpoint with the given access token validator.
func NewTimeEndpoint(validator AccessTokenValidator, opts ...EndpointOption) *TimeEndpoint {
	return &TimeEndpoint{endpoint: NewEndpoint(validator, opts...)}
}

func (ep *TimeEndpoint) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ep.endpoint.Process(rw, r, ep.handle)
	case http.MethodPost:
		ep.endpoint.ProcessRequiringContentType(rw, r, ContentTypeFormURLEncoded, ep.handle)
	default:
		http.Error(rw, "Only GET and POST methods are allowed", http.StatusMethodNotAllowed)
	}
}

func (ep *TimeEndpoint) handle(_ context.Context, r *http.Request) (*Response, error) {
	result, err := ep.endpoint.ValidateAccessToken(r, nil, "")
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return result.ErrorResponse, nil
	}

	body, err := json.Marshal(makeTimeResponse(time.Now()))
	if err != nil {
		return nil, err
	}
	return NewJSONResponse(http.StatusOK, string(body)), nil
}

// timeResponse is the success body of the time endpoint. All fields are taken
// from the same UTC instant; month is 1-based.
type timeResponse struct {
	Year        int `json:"year"`
	Month       int `json:"month"`
	Day         int `json:"day"`
	Hour        int `json:"hour"`
	Minute      int `json:"minute"`
	Second      int `json:"second"`
	Millisecond int `json:"millisecond"`
}

func makeTimeResponse(now time.Time) timeResponse {
	now = now.UTC()
	return timeResponse{
		Year:        now.Year(),
		Month:       int(now.Month()),
		Day:         now.Day(),
		Hour:        now.Hour(),
		Minute:      now.Minute(),
		Second:      now.Second(),
		Millisecond: now.Nanosecond() / int(time.Millisecond),
	}
}
