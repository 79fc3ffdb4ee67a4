package domain

// Session is the credential and profile of the user logged in on this
// device. A user is present exactly when a token is present.
type Session struct {
	Token string
	User  *User
}

// Empty reports whether no one is logged in.
func (s Session) Empty() bool {
	return s.Token == "" || s.User == nil
}

// Snapshot is a point-in-time copy of the session store state.
type Snapshot struct {
	Session
	IsLoading bool
}

// IsAuthenticated reports whether the snapshot carries a complete session.
func (s Snapshot) IsAuthenticated() bool {
	return !s.IsLoading && !s.Empty()
}

// Role returns the role of the logged-in user or RoleNone.
func (s Snapshot) Role() Role {
	if s.User == nil {
		return RoleNone
	}
	return s.User.Role
}

// HasRole reports whether the logged-in user satisfies q.
func (s Snapshot) HasRole(q Requirement) bool {
	return s.IsAuthenticated() && s.Role().Satisfies(q)
}
