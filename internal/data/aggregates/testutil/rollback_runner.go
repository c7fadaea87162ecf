package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/aggregates"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

// RollbackRunner runs progress writes in real transactions. When FailAfterBody
// is set, a write whose body succeeded is rolled back anyway and the error is
// returned, as if the commit had been lost.
type RollbackRunner struct {
	DB *gorm.DB

	mu            sync.Mutex
	failAfterBody error
	Commits       int
	Rollbacks     int
}

var _ aggregates.TxRunner = (*RollbackRunner)(nil)

func NewRollbackRunner(db *gorm.DB) *RollbackRunner {
	return &RollbackRunner{DB: db}
}

// FailNextCommits makes every following write roll back with err. Pass nil to
// let writes commit again.
func (r *RollbackRunner) FailNextCommits(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAfterBody = err
}

func (r *RollbackRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	failAfter := r.failAfterBody
	r.mu.Unlock()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fn != nil {
			if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
				return err
			}
		}
		return failAfter
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.Rollbacks++
	} else {
		r.Commits++
	}
	return err
}
