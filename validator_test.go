/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-resourceserver/authlete"
)

type mockIntrospectionAPI struct {
	resp      authlete.IntrospectionResponse
	err       error
	lastReq   authlete.IntrospectionRequest
	callCount int
}

func (m *mockIntrospectionAPI) Introspect(
	_ context.Context, req authlete.IntrospectionRequest,
) (authlete.IntrospectionResponse, error) {
	m.callCount++
	m.lastReq = req
	return m.resp, m.err
}

func TestTokenValidatorValidate(t *testing.T) {
	t.Run("empty token is rejected locally", func(t *testing.T) {
		api := &mockIntrospectionAPI{}
		v := NewTokenValidator(api)

		result, err := v.Validate(context.Background(), "", nil, "")
		require.NoError(t, err)
		require.False(t, result.IsValid)
		require.NotNil(t, result.ErrorResponse)
		require.Equal(t, http.StatusUnauthorized, result.ErrorResponse.StatusCode)
		require.Equal(t, MissingTokenChallenge, result.ErrorResponse.Header.Get(HeaderWWWAuthenticate))
		require.Equal(t, 0, api.callCount, "remote API must not be called for an absent token")
	})

	t.Run("OK action yields valid result", func(t *testing.T) {
		api := &mockIntrospectionAPI{resp: authlete.IntrospectionResponse{
			Action: authlete.ActionOK, Subject: "1001", Scopes: []string{"openid"},
			Existent: true, Usable: true, Sufficient: true,
		}}
		v := NewTokenValidator(api)

		result, err := v.Validate(context.Background(), "a.b.c", []string{"openid"}, "1001")
		require.NoError(t, err)
		require.True(t, result.IsValid)
		require.Nil(t, result.ErrorResponse)
		require.NotNil(t, result.Introspection)
		require.Equal(t, "1001", result.Introspection.Subject)
		require.Equal(t, authlete.IntrospectionRequest{
			Token: "a.b.c", Scopes: []string{"openid"}, Subject: "1001"}, api.lastReq)
	})

	t.Run("non-OK actions map to error responses", func(t *testing.T) {
		tests := []struct {
			action         authlete.Action
			wantStatusCode int
		}{
			{action: authlete.ActionBadRequest, wantStatusCode: http.StatusBadRequest},
			{action: authlete.ActionUnauthorized, wantStatusCode: http.StatusUnauthorized},
			{action: authlete.ActionForbidden, wantStatusCode: http.StatusForbidden},
			{action: authlete.ActionInternalServerError, wantStatusCode: http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(string(tt.action), func(t *testing.T) {
				const challenge = `Bearer error="invalid_token"`
				api := &mockIntrospectionAPI{resp: authlete.IntrospectionResponse{
					Action: tt.action, ResponseContent: challenge}}
				v := NewTokenValidator(api)

				result, err := v.Validate(context.Background(), "a.b.c", nil, "")
				require.NoError(t, err)
				require.False(t, result.IsValid)
				require.NotNil(t, result.ErrorResponse)
				require.Equal(t, tt.wantStatusCode, result.ErrorResponse.StatusCode)
				require.Equal(t, challenge, result.ErrorResponse.Header.Get(HeaderWWWAuthenticate))
			})
		}
	})

	t.Run("remote call failure is returned as error", func(t *testing.T) {
		apiErr := errors.New("connection refused")
		api := &mockIntrospectionAPI{err: apiErr}
		v := NewTokenValidator(api)

		result, err := v.Validate(context.Background(), "a.b.c", nil, "")
		require.ErrorIs(t, err, apiErr)
		require.False(t, result.IsValid)
		require.Nil(t, result.ErrorResponse)
	})

	t.Run("unexpected action is returned as error", func(t *testing.T) {
		api := &mockIntrospectionAPI{resp: authlete.IntrospectionResponse{Action: "SOMETHING_ELSE"}}
		v := NewTokenValidator(api)

		_, err := v.Validate(context.Background(), "a.b.c", nil, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "SOMETHING_ELSE")
	})
}
