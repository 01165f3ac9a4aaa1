package services

import "savdesk/database"

// Identity is the authenticated caller as established by the auth
// middleware. Services never look at tokens themselves.
type Identity struct {
	UserID       uint
	Role         database.Role
	TechnicienID *uint
}

func (i Identity) Is(role database.Role) bool {
	return i.Role == role
}
