package context_manager

import (
	"context"
	"strings"
)

type accountKey struct{}

type runKey struct{}

// SetAccountContext stores the signed-in account uid into context
func SetAccountContext(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, accountKey{}, strings.TrimSpace(uid))
}

// GetAccountFromContext retrieves the account uid, "" when nobody is signed in
func GetAccountFromContext(ctx context.Context) string {
	uid, ok := ctx.Value(accountKey{}).(string)
	if !ok {
		return ""
	}
	return uid
}

// SetRunContext tags ctx with a sync run id for log correlation
func SetRunContext(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runKey{}, runID)
}

func GetRunFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runKey{}).(string)
	return id
}
