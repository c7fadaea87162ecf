package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos use Tx when set and fall back to their own handle otherwise.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Background is a Context with no transaction.
func Background(ctx context.Context) Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return Context{Ctx: ctx}
}

// DB returns the transaction when present, else fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	t := c.Tx
	if t == nil {
		t = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return t.WithContext(ctx)
}
