/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package userdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryDatabaseLookupBySubject(t *testing.T) {
	db := NewInMemoryDatabase()

	t.Run("known subject", func(t *testing.T) {
		user := db.LookupBySubject("1001")
		require.NotNil(t, user)
		require.Equal(t, "1001", user.Subject)
		require.Equal(t, "John Doe", user.GetClaim("name"))
		require.Equal(t, true, user.GetClaim("email_verified"))
	})

	t.Run("unknown subject", func(t *testing.T) {
		require.Nil(t, db.LookupBySubject("9999"))
	})
}

func TestUserGetClaim(t *testing.T) {
	user := &User{Subject: "42", Claims: map[string]interface{}{"name": "Answer"}}
	require.Equal(t, "Answer", user.GetClaim("name"))
	require.Nil(t, user.GetClaim("address"))

	var nilUser *User
	require.Nil(t, nilUser.GetClaim("name"))
}
