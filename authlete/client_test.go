/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package authlete_test

import (
	"context"
	"testing"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-resourceserver/authlete"
	"github.com/acronis/go-resourceserver/authletetest"
)

func startTestServer(t *testing.T, opts ...authletetest.HTTPServerOption) *authletetest.HTTPServer {
	t.Helper()
	server := authletetest.NewHTTPServer(opts...)
	require.NoError(t, server.StartAndWaitForReady(time.Second))
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })
	return server
}

func TestClientIntrospect(t *testing.T) {
	server := startTestServer(t)
	client := authlete.NewClient(server.URL(), authletetest.TestServiceAPIKey, authletetest.TestServiceAPISecret)

	t.Run("active token", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
			Scope:            []string{"openid", "profile"},
		})
		resp, err := client.Introspect(context.Background(), authlete.IntrospectionRequest{Token: token})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionOK, resp.Action)
		require.Equal(t, "1001", resp.Subject)
		require.Equal(t, []string{"openid", "profile"}, resp.Scopes)
		require.True(t, resp.Existent)
		require.True(t, resp.Usable)
		require.True(t, resp.Sufficient)
	})

	t.Run("expired token", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{
				Subject:   "1001",
				ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		resp, err := client.Introspect(context.Background(), authlete.IntrospectionRequest{Token: token})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionUnauthorized, resp.Action)
		require.Equal(t, authletetest.ChallengeInvalidToken, resp.ResponseContent)
	})

	t.Run("insufficient scope", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
			Scope:            []string{"openid"},
		})
		resp, err := client.Introspect(context.Background(), authlete.IntrospectionRequest{
			Token: token, Scopes: []string{"admin"}})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionForbidden, resp.Action)
		require.Equal(t, authletetest.ChallengeInsufficientScope, resp.ResponseContent)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
		})
		resp, err := client.Introspect(context.Background(), authlete.IntrospectionRequest{
			Token: token, Subject: "1002"})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionForbidden, resp.Action)
		require.Equal(t, authletetest.ChallengeSubjectMismatch, resp.ResponseContent)
	})

	t.Run("empty token", func(t *testing.T) {
		resp, err := client.Introspect(context.Background(), authlete.IntrospectionRequest{})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionBadRequest, resp.Action)
		require.Equal(t, authletetest.ChallengeInvalidRequest, resp.ResponseContent)
	})
}

func TestClientServiceCredentials(t *testing.T) {
	server := startTestServer(t,
		authletetest.WithServiceCredentials(authletetest.TestServiceAPIKey, authletetest.TestServiceAPISecret))

	t.Run("valid credentials", func(t *testing.T) {
		client := authlete.NewClient(server.URL(), authletetest.TestServiceAPIKey, authletetest.TestServiceAPISecret)
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
		})
		resp, err := client.Introspect(context.Background(), authlete.IntrospectionRequest{Token: token})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionOK, resp.Action)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		client := authlete.NewClient(server.URL(), "wrong-key", "wrong-secret")
		_, err := client.Introspect(context.Background(), authlete.IntrospectionRequest{Token: "a.b.c"})
		require.ErrorIs(t, err, authlete.ErrUnauthenticated)
	})
}

func TestClientUserInfo(t *testing.T) {
	server := startTestServer(t)
	client := authlete.NewClient(server.URL(), authletetest.TestServiceAPIKey, authletetest.TestServiceAPISecret)

	t.Run("openid token gets claim names for its scopes", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
			Scope:            []string{"openid", "profile", "email"},
		})
		resp, err := client.UserInfo(context.Background(), authlete.UserInfoRequest{Token: token})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionOK, resp.Action)
		require.Equal(t, "1001", resp.Subject)
		require.Equal(t, []string{"name", "given_name", "family_name", "locale", "email", "email_verified"},
			resp.Claims)
	})

	t.Run("token without openid scope is forbidden", func(t *testing.T) {
		token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
			RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
			Scope:            []string{"profile"},
		})
		resp, err := client.UserInfo(context.Background(), authlete.UserInfoRequest{Token: token})
		require.NoError(t, err)
		require.Equal(t, authlete.ActionForbidden, resp.Action)
		require.Equal(t, authletetest.ChallengeOpenIDScopeNeeded, resp.ResponseContent)
	})
}

func TestClientUserInfoIssue(t *testing.T) {
	server := startTestServer(t)
	client := authlete.NewClient(server.URL(), authletetest.TestServiceAPIKey, authletetest.TestServiceAPISecret)

	token := authletetest.MustMakeTokenString(authletetest.TokenClaims{
		RegisteredClaims: jwtgo.RegisteredClaims{Subject: "1001"},
		Scope:            []string{"openid"},
	})
	resp, err := client.UserInfoIssue(context.Background(), authlete.UserInfoIssueRequest{
		Token: token, Claims: `{"name":"John Doe"}`})
	require.NoError(t, err)
	require.Equal(t, authlete.ActionOK, resp.Action)
	require.JSONEq(t, `{"sub":"1001","name":"John Doe"}`, resp.ResponseContent)
}
