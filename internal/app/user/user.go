/*
Package user contains the core data structures for chat participant identity.

The server-side registry owns the authoritative User record; Info is the
reduced wire representation embedded in every broadcast event.
*/
package user

// User is the authoritative record for one connected participant.
// The connection registry owns every User for exactly the lifetime of the
// underlying connection; the id never changes and is never reused.
type User struct {
	// ID is the opaque unique identifier assigned at connection time.
	ID string

	// Name is the mutable display name. The server assigns an id-derived
	// default at connect time; no uniqueness is enforced.
	Name string

	// Typing reports whether the participant is currently typing. It is
	// mutated only by typing frames from this user's own connection.
	Typing bool
}

// Info is the wire representation of a participant used in roster
// snapshots and broadcast events.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Info returns the wire representation of the user.
func (u User) Info() Info {
	return Info{ID: u.ID, Name: u.Name}
}
