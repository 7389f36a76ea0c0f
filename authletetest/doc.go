/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package authletetest provides helper primitives and functions required for
// testing the resource server: token minting and a simple HTTP server
// mocking the authorization service's introspection and userinfo endpoints.
package authletetest
