package progress

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

// PendingFilter narrows the review queue. Zero-valued fields are ignored.
type PendingFilter struct {
	ClubID          *uuid.UUID
	UnitID          *uuid.UUID
	Region          string
	District        string
	EventLinkedOnly bool
	Limit           int
}

type ProgressRecordRepo interface {
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProgressRecord, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProgressRecord, error)
	GetByMemberRequirement(dbc dbctx.Context, memberID, requirementID uuid.UUID) (*types.ProgressRecord, error)
	ListByMemberRequirements(dbc dbctx.Context, memberID uuid.UUID, requirementIDs []uuid.UUID) ([]*types.ProgressRecord, error)

	// UpsertSubmission writes a PENDING row for the pair unless the existing row
	// is APPROVED. applied is false when the approved guard blocked the write.
	UpsertSubmission(dbc dbctx.Context, row *types.ProgressRecord) (applied bool, err error)

	// UpsertApproved writes an APPROVED row for the pair. An already approved row is left untouched.
	UpsertApproved(dbc dbctx.Context, row *types.ProgressRecord) error

	// InsertMissing inserts rows whose pair does not exist yet and reports how many were created.
	InsertMissing(dbc dbctx.Context, rows []*types.ProgressRecord) (int64, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	ListPending(dbc dbctx.Context, f PendingFilter) ([]*types.ProgressRecord, error)

	DeleteByRequirementID(dbc dbctx.Context, requirementID uuid.UUID) (int64, error)
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return &progressRecordRepo{db: db, log: baseLog.With("repo", "ProgressRecordRepo")}
}

func (r *progressRecordRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProgressRecord, error) {
	var out []*types.ProgressRecord
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRecordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProgressRecord, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *progressRecordRepo) GetByMemberRequirement(dbc dbctx.Context, memberID, requirementID uuid.UUID) (*types.ProgressRecord, error) {
	if memberID == uuid.Nil || requirementID == uuid.Nil {
		return nil, nil
	}
	var row types.ProgressRecord
	if err := dbc.DB(r.db).
		Where("member_id = ? AND requirement_id = ?", memberID, requirementID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *progressRecordRepo) ListByMemberRequirements(dbc dbctx.Context, memberID uuid.UUID, requirementIDs []uuid.UUID) ([]*types.ProgressRecord, error) {
	var out []*types.ProgressRecord
	if memberID == uuid.Nil || len(requirementIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("member_id = ? AND requirement_id IN ?", memberID, requirementIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func pairConflict() []clause.Column {
	return []clause.Column{{Name: "member_id"}, {Name: "requirement_id"}}
}

func notApprovedGuard() clause.Where {
	return clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: "progress_record.status <> ?", Vars: []interface{}{domainprog.StatusApproved}},
	}}
}

func (r *progressRecordRepo) UpsertSubmission(dbc dbctx.Context, row *types.ProgressRecord) (bool, error) {
	if row == nil || row.MemberID == uuid.Nil || row.RequirementID == uuid.Nil {
		return false, nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.Status = domainprog.StatusPending
	if row.SubmittedAt == nil {
		row.SubmittedAt = &now
	}
	row.CompletedAt = nil
	row.CreatedAt = now
	row.UpdatedAt = now
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: pairConflict(),
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"answer_text",
				"file_ref",
				"submitted_at",
				"completed_at",
				"updated_at",
			}),
			Where: notApprovedGuard(),
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *progressRecordRepo) UpsertApproved(dbc dbctx.Context, row *types.ProgressRecord) error {
	if row == nil || row.MemberID == uuid.Nil || row.RequirementID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.Status = domainprog.StatusApproved
	if row.CompletedAt == nil {
		row.CompletedAt = &now
	}
	if row.SubmittedAt == nil {
		row.SubmittedAt = row.CompletedAt
	}
	row.ReviewComment = nil
	row.CreatedAt = now
	row.UpdatedAt = now
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: pairConflict(),
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"submitted_at",
				"completed_at",
				"review_comment",
				"approved_by",
				"updated_at",
			}),
			Where: notApprovedGuard(),
		}).
		Create(row).Error
}

func (r *progressRecordRepo) InsertMissing(dbc dbctx.Context, rows []*types.ProgressRecord) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Status == "" {
			row.Status = domainprog.StatusPending
		}
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: pairConflict(), DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *progressRecordRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Model(&types.ProgressRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *progressRecordRepo) ListPending(dbc dbctx.Context, f PendingFilter) ([]*types.ProgressRecord, error) {
	q := dbc.DB(r.db).
		Model(&types.ProgressRecord{}).
		Select("progress_record.*").
		Joins("JOIN member ON member.id = progress_record.member_id").
		Where("progress_record.status = ?", domainprog.StatusPending)
	if f.ClubID != nil && *f.ClubID != uuid.Nil {
		q = q.Where("member.club_id = ?", *f.ClubID)
	}
	if f.UnitID != nil && *f.UnitID != uuid.Nil {
		q = q.Where("member.unit_id = ?", *f.UnitID)
	}
	region := strings.TrimSpace(f.Region)
	district := strings.TrimSpace(f.District)
	if region != "" || district != "" {
		q = q.Joins("JOIN club ON club.id = member.club_id")
		if region != "" {
			q = q.Where("club.region = ?", region)
		}
		if district != "" {
			q = q.Where("club.district = ?", district)
		}
	}
	if f.EventLinkedOnly {
		q = q.Joins("JOIN requirement ON requirement.id = progress_record.requirement_id").
			Where("requirement.event_id IS NOT NULL")
	}
	q = q.Order("progress_record.submitted_at ASC, progress_record.id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []*types.ProgressRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRecordRepo) DeleteByRequirementID(dbc dbctx.Context, requirementID uuid.UUID) (int64, error) {
	if requirementID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("requirement_id = ?", requirementID).Delete(&types.ProgressRecord{})
	return res.RowsAffected, res.Error
}
