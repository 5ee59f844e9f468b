package service

import "github.com/google/uuid"

// Session identifies the authenticated caller of an operation. It is built
// from validated JWT claims by the middleware and passed explicitly to every
// service method; there is no ambient "current user" state, so concurrent
// sessions never interfere.
type Session struct {
	UserID uuid.UUID
	Email  string
	Name   string
}
