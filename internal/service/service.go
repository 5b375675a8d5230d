// Package service implements the RPC procedures on top of the repositories.
// Every method takes the caller explicitly; a nil *session.Session is an
// anonymous caller.
package service

import (
	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/session"
)

func requireSession(caller *session.Session) error {
	if caller == nil || caller.UserID == "" {
		return domainerrors.Unauthorized("sign in required")
	}
	return nil
}

// notFoundAsNil turns a NOT_FOUND error into a nil result for the
// "record | null" procedures.
func notFoundAsNil(err error) (bool, error) {
	if domainerrors.CodeOf(err) == domainerrors.CodeNotFound {
		return true, nil
	}
	return false, err
}
