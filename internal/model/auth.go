package model

import "github.com/google/uuid"

// AuthContext is the caller identity resolved from a bearer token.
type AuthContext struct {
	UserID  uuid.UUID
	IsStaff bool
}

func (a AuthContext) Authenticated() bool { return a.UserID != uuid.Nil }

func (a AuthContext) CanViewOrder(o *Order) bool {
	if a.IsStaff {
		return true
	}
	return o.UserID != nil && *o.UserID == a.UserID
}

// CartOwner identifies whose cart a request operates on. Exactly one of the
// fields is set.
type CartOwner struct {
	UserID    uuid.UUID
	SessionID string
}

func (o CartOwner) Anonymous() bool { return o.UserID == uuid.Nil }
