/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package userdb provides a lookup of user records by the subject associated
// with an access token. The in-memory implementation is a dummy store seeded
// with fixed records; a real deployment would back it with an account service.
package userdb

// Database is an interface for looking up user records by subject.
type Database interface {
	// LookupBySubject returns the user record for the given subject or nil if there is none.
	LookupBySubject(subject string) *User
}

// User is a user record holding OpenID Connect claim values.
type User struct {
	Subject string
	Claims  map[string]interface{}
}

// GetClaim returns the value of the claim with the given name or nil if the record doesn't carry it.
func (u *User) GetClaim(name string) interface{} {
	if u == nil {
		return nil
	}
	return u.Claims[name]
}

// InMemoryDatabase is a Database implementation holding a fixed set of user records.
type InMemoryDatabase struct {
	users map[string]*User
}

var _ Database = (*InMemoryDatabase)(nil)

// NewInMemoryDatabase creates a new InMemoryDatabase seeded with dummy user records.
func NewInMemoryDatabase() *InMemoryDatabase {
	users := []*User{
		{
			Subject: "1001",
			Claims: map[string]interface{}{
				"name":           "John Doe",
				"given_name":     "John",
				"family_name":    "Doe",
				"email":          "john.doe@example.com",
				"email_verified": true,
				"locale":         "en-US",
			},
		},
		{
			Subject: "1002",
			Claims: map[string]interface{}{
				"name":           "Jane Roe",
				"given_name":     "Jane",
				"family_name":    "Roe",
				"email":          "jane.roe@example.com",
				"email_verified": false,
				"locale":         "en-GB",
			},
		},
	}
	db := &InMemoryDatabase{users: make(map[string]*User, len(users))}
	for _, u := range users {
		db.users[u.Subject] = u
	}
	return db
}

// LookupBySubject returns the user record for the given subject or nil if there is none.
func (db *InMemoryDatabase) LookupBySubject(subject string) *User {
	return db.users[subject]
}
