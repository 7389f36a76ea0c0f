/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package apiutil provides shared HTTP client and logging plumbing for calling
// the remote authorization service. It's used in the internal code and not exposed to the public API.
package apiutil
