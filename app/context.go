package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/blogpress/internal/userservice"
)

type contextKey string

const identityContextKey = contextKey("identity")

func (app *application) createIdentityContext(r *http.Request, id *userservice.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, id)
	return r.WithContext(ctx)
}

// getIdentityContext returns the authenticated caller. It only runs behind
// the authenticate middleware, so a missing identity is a programming
// error and surfaces as nil.
func (app *application) getIdentityContext(r *http.Request) *userservice.Identity {
	id, ok := r.Context().Value(identityContextKey).(*userservice.Identity)
	if !ok {
		return nil
	}
	return id
}
