// Package auth exposes the session boundary the client depends on: a source
// of bearer credentials for the current user.
package auth

import (
	"context"
	"os"
	"strings"
)

// TokenSource returns the current user's bearer token. ok is false when no
// user is signed in.
type TokenSource interface {
	CurrentUserToken(ctx context.Context) (token string, ok bool)
}

// Static always returns the same token. An empty Static means signed out.
type Static string

func (s Static) CurrentUserToken(context.Context) (string, bool) {
	token := strings.TrimSpace(string(s))
	return token, token != ""
}

// Env reads the token from an environment variable on every call so a
// refreshed token is picked up without restarting.
type Env string

func (e Env) CurrentUserToken(context.Context) (string, bool) {
	name := strings.TrimSpace(string(e))
	if name == "" {
		return "", false
	}
	token := strings.TrimSpace(os.Getenv(name))
	return token, token != ""
}

// File reads the token from a file written by the sign-in flow.
type File string

func (f File) CurrentUserToken(context.Context) (string, bool) {
	path := strings.TrimSpace(string(f))
	if path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

// Chain tries each source in order and returns the first token found.
type Chain []TokenSource

func (c Chain) CurrentUserToken(ctx context.Context) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if token, ok := src.CurrentUserToken(ctx); ok {
			return token, true
		}
	}
	return "", false
}
