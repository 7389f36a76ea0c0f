/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/acronis/go-appkit/httpserver/middleware"
	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	resourceserver "github.com/acronis/go-resourceserver"
	"github.com/acronis/go-resourceserver/authlete"
	"github.com/acronis/go-resourceserver/authletetest"
	"github.com/acronis/go-resourceserver/userdb"
)

// startResourceServer wires the endpoints against a mock authorization service
// the same way the resource-server command does.
func startResourceServer(t *testing.T) *httptest.Server {
	t.Helper()

	authSrv := authletetest.NewHTTPServer(
		authletetest.WithServiceCredentials(authletetest.TestServiceAPIKey, authletetest.TestServiceAPISecret))
	require.NoError(t, authSrv.StartAndWaitForReady(time.Second))
	t.Cleanup(func() { _ = authSrv.Shutdown(context.Background()) })

	apiClient := authlete.NewClient(authSrv.URL(), authletetest.TestServiceAPIKey, authletetest.TestServiceAPISecret)
	validator := resourceserver.NewTokenValidator(apiClient)
	userInfoHandler := resourceserver.NewUserInfoRequestHandler(apiClient, userdb.NewInMemoryDatabase())

	mux := http.NewServeMux()
	mux.Handle("/api/time", resourceserver.NewTimeEndpoint(validator))
	mux.Handle("/api/userinfo", resourceserver.NewUserInfoEndpoint(validator, userInfoHandler))

	srv := httptest.NewServer(middleware.RequestID()(mux))
	t.Cleanup(srv.Close)
	return srv
}

func TestResourceServerTimeEndpoint(t *testing.T) {
	srv := startResourceServer(t)

	t.Run("GET with bearer token in header", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
		})
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/time", http.NoBody)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.NotEmpty(t, resp.Header.Get("X-Request-ID"), "middleware-set headers must survive")

		var body struct {
			Year  int `json:"year"`
			Month int `json:"month"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, time.Now().UTC().Year(), body.Year)
		require.Equal(t, int(time.Now().UTC().Month()), body.Month)
	})

	t.Run("GET without token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/time")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, resourceserver.MissingTokenChallenge, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("GET with expired token", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{
				Subject:   "1001",
				ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		resp, err := http.Get(srv.URL + "/api/time?access_token=" + url.QueryEscape(token))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, authletetest.ChallengeInvalidToken, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("POST with token in form body", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
		})
		resp, err := http.Post(srv.URL+"/api/time", "application/x-www-form-urlencoded",
			strings.NewReader(url.Values{"access_token": {token}}.Encode()))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("POST with wrong content type", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/time", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "Request 'Content-Type' must be 'application/x-www-form-urlencoded'.", string(body))
	})
}

func TestResourceServerUserInfoEndpoint(t *testing.T) {
	srv := startResourceServer(t)

	t.Run("full userinfo flow", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
			Scope:            []string{"openid", "profile", "email"},
		})
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/userinfo", http.NoBody)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		require.Equal(t, "1001", payload["sub"])
		require.Equal(t, "John Doe", payload["name"])
		require.Equal(t, "john.doe@example.com", payload["email"])
		require.Equal(t, true, payload["email_verified"])
		require.Equal(t, "en-US", payload["locale"])
	})

	t.Run("token without openid scope", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
			Scope:            []string{"profile"},
		})
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/userinfo", http.NoBody)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, authletetest.ChallengeOpenIDScopeNeeded, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("subject unknown to the user database", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "9999"},
			Scope:            []string{"openid"},
		})
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/userinfo", http.NoBody)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, resourceserver.UnknownSubjectChallenge, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("without token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/userinfo")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, resourceserver.MissingTokenChallenge, resp.Header.Get("WWW-Authenticate"))
	})
}
