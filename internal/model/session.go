// Package model defines domain types for fintrack records and dashboard metrics.
package model

// Identity is the signed-in user as reported by the identity provider.
// The zero value means no one is signed in.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool { return i.UID == "" }

// Profile is the per-user document kept in the users collection.
type Profile struct {
	UID    string
	Name   string
	Email  string
	Mobile string
}
