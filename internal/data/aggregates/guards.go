package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

// ProgressTransitions moves progress records between review states with a
// status-guarded UPDATE, so two reviewers acting on one record resolve to a
// single winner.
type ProgressTransitions struct {
	db *gorm.DB
}

func NewProgressTransitions(db *gorm.DB) ProgressTransitions {
	return ProgressTransitions{db: db}
}

// Move applies updates to the record only while its status is one of from.
// It reports whether the row was changed.
func (g ProgressTransitions) Move(dbc dbctx.Context, id uuid.UUID, from []string, updates map[string]any) (bool, error) {
	if dbc.Tx == nil && g.db == nil {
		return false, ValidationError("progress transition needs a database handle")
	}
	if id == uuid.Nil {
		return false, ValidationError("progress transition needs a record id")
	}
	if len(from) == 0 {
		return false, ValidationError("progress transition needs at least one source status")
	}
	if _, ok := updates["status"]; !ok {
		return false, ValidationError("progress transition must set a target status")
	}
	res := dbc.DB(g.db).Model(&types.ProgressRecord{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireMoved turns a lost transition into a conflict naming the record's
// current status.
func RequireMoved(ok bool, current, target string) error {
	if ok {
		return nil
	}
	return ConflictError(fmt.Sprintf("progress record is %s and cannot become %s", statusLabel(current), statusLabel(target)))
}

// RequireStatus reports a conflict unless current is one of allowed.
func RequireStatus(current string, allowed ...string) error {
	current = strings.TrimSpace(current)
	if len(allowed) == 0 {
		return ValidationError("no allowed progress statuses given")
	}
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return ConflictError(fmt.Sprintf("progress record is %s, expected %s", statusLabel(current), strings.Join(allowed, " or ")))
}

func statusLabel(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "missing"
	}
	return s
}
