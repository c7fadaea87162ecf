package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
)

// Sentinels for failures raised inside a progress transaction. MapError turns
// them into aggregate codes once the transaction has rolled back.
var (
	ErrValidation = errors.New("progress input rejected")
	ErrInvariant  = errors.New("progress invariant broken")
	ErrConflict   = errors.New("progress state changed")
	ErrRetryable  = errors.New("progress write interrupted")
)

func ValidationError(msg string) error { return tagged(ErrValidation, msg) }
func InvariantError(msg string) error  { return tagged(ErrInvariant, msg) }
func ConflictError(msg string) error   { return tagged(ErrConflict, msg) }
func RetryableError(msg string) error  { return tagged(ErrRetryable, msg) }

func tagged(sentinel error, msg string) error {
	return errors.Join(sentinel, errors.New(strings.TrimSpace(msg)))
}

// Postgres SQLSTATEs the progress tables can raise.
var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // duplicate (member, requirement) or ledger row
	"23503": domainagg.CodePreconditionFailed, // requirement or member deleted mid-flight
	"40001": domainagg.CodeRetryable,          // serialization failure
	"40P01": domainagg.CodeRetryable,          // deadlock between member locks
	"55P03": domainagg.CodeRetryable,          // member row lock not available
}

// SQLite reports through driver messages rather than typed errors.
var sqliteMessages = []struct {
	fragment string
	code     domainagg.ErrorCode
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"foreign key constraint failed", domainagg.CodePreconditionFailed},
	{"database is locked", domainagg.CodeRetryable},
	{"database table is locked", domainagg.CodeRetryable},
}

// MapError classifies a failed progress write. Aggregate errors pass through
// untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.CodeValidation
	case errors.Is(err, ErrInvariant):
		return domainagg.CodeInvariantViolation
	case errors.Is(err, ErrConflict):
		return domainagg.CodeConflict
	case errors.Is(err, ErrRetryable):
		return domainagg.CodeRetryable
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainagg.CodeConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.CodeRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return code
		}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range sqliteMessages {
		if strings.Contains(msg, m.fragment) {
			return m.code
		}
	}
	switch {
	case strings.Contains(msg, "duplicate key"):
		return domainagg.CodeConflict
	case strings.Contains(msg, "deadlock"), strings.Contains(msg, "timeout"):
		return domainagg.CodeRetryable
	}
	return domainagg.CodeInternal
}
