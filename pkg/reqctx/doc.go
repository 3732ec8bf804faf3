// Package reqctx carries request-scoped data through context.Context.
//
// HTTP middleware stores RequestMeta for every request and AuthClaims for
// authenticated ones; services and workers read them back with the typed
// getters:
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithClaims(ctx, claims)
//
//	userID, ok := reqctx.UserIDFromContext(ctx)
//	role := reqctx.RoleFromContext(ctx)
//
// Keys are unexported so no other package can collide with them.
package reqctx
