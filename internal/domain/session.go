package domain

// Session is the authenticated client identity for one user. It is
// created on successful login or register, persisted across restarts
// through the key-value store, and destroyed on explicit logout.
type Session struct {
	Token string
	Email string
}

// Authenticated reports whether a bearer token is held. Analysis is
// possible without one (public endpoint); saving is not.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
