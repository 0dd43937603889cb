package service

import "github.com/openmohaa/battler/internal/battle"

// Authorizer decides whether callerID may act on behalf of playerID, the
// pluggable authorization hook spec §6.4 names for battle.create and every
// other player-scoped operation ("create(...) authorized by a pluggable
// Authorizer"). A Service built with New uses SameIdentityAuthorizer; a
// deployment that layers a real auth system (API keys, session tokens)
// supplies its own via NewWithAuthorizer.
type Authorizer interface {
	Authorize(callerID, playerID string) *battle.Error
}

// AuthorizerFunc adapts a plain function to Authorizer.
type AuthorizerFunc func(callerID, playerID string) *battle.Error

func (f AuthorizerFunc) Authorize(callerID, playerID string) *battle.Error {
	return f(callerID, playerID)
}

// SameIdentityAuthorizer is the default: a caller may only act as itself.
// This mirrors the error string spec §6.4/§8 pin verbatim:
// "<caller> cannot act as <target>".
var SameIdentityAuthorizer AuthorizerFunc = func(callerID, playerID string) *battle.Error {
	if callerID == playerID {
		return nil
	}
	return &battle.Error{
		Kind:     battle.KindUnauthorized,
		Messages: []string{callerID + " cannot act as " + playerID},
	}
}

// Authorize is kept as a free function for existing callers/tests that
// only ever need the default same-identity policy.
func Authorize(callerID, playerID string) *battle.Error {
	return SameIdentityAuthorizer.Authorize(callerID, playerID)
}
