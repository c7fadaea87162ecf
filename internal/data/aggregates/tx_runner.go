package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

// TxRunner owns the transaction boundary of a progress write. The progress
// record, member points and badge rows commit or roll back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "Curriculum.Progress.Tx", "progress writes need a database", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
