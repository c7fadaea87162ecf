package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

const tracerName = "trailmark/aggregates"

type BaseDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Runner      TxRunner
	Hooks       Hooks
	Transitions ProgressTransitions
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Transitions.db == nil {
		d.Transitions = NewProgressTransitions(d.DB)
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, op, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	span.SetAttributes(attribute.String("aggregate.status", status))
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
