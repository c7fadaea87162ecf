package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type CreateRequirementInput struct {
	Code        string     `validate:"omitempty,max=64"`
	Description string     `validate:"required,max=2000"`
	Area        string     `validate:"omitempty,max=128"`
	RankClass   string     `validate:"omitempty,max=64"`
	BadgeID     *uuid.UUID `validate:"omitempty"`
	Kind        string     `validate:"required,oneof=TEXT FILE QUIZ"`
	Scope       string     `validate:"required,oneof=REGION DISTRICT CLUB"`
	EventID     *uuid.UUID `validate:"omitempty"`
}

type AddQuestionInput struct {
	RequirementID uuid.UUID `validate:"required"`
	Text          string    `validate:"required,max=1000"`
	Options       []string  `validate:"required,min=2,max=8,dive,required,max=500"`
	CorrectIndex  int       `validate:"gte=0"`
}

type DeleteRequirementResult struct {
	RequirementID  uuid.UUID `json:"requirement_id"`
	DeletedRecords int64     `json:"deleted_progress_records"`
}

// CurriculumDoc is the YAML import format.
type CurriculumDoc struct {
	Badges       []BadgeDoc       `yaml:"badges"`
	Requirements []RequirementDoc `yaml:"requirements" validate:"dive"`
}

type BadgeDoc struct {
	Name string `yaml:"name"`
	Area string `yaml:"area"`
}

type RequirementDoc struct {
	Code        string        `yaml:"code"`
	Description string        `yaml:"description" validate:"required"`
	Area        string        `yaml:"area"`
	RankClass   string        `yaml:"rank_class"`
	Badge       string        `yaml:"badge"`
	Kind        string        `yaml:"kind" validate:"omitempty,oneof=TEXT FILE QUIZ"`
	Scope       string        `yaml:"scope" validate:"omitempty,oneof=GLOBAL REGION DISTRICT CLUB"`
	Region      string        `yaml:"region"`
	District    string        `yaml:"district"`
	ClubID      string        `yaml:"club_id" validate:"omitempty,uuid"`
	Questions   []QuestionDoc `yaml:"questions" validate:"dive"`
}

type QuestionDoc struct {
	Text    string   `yaml:"text" validate:"required"`
	Options []string `yaml:"options" validate:"required,min=2"`
	Correct int      `yaml:"correct" validate:"gte=0"`
}

type ImportResult struct {
	Badges       int `json:"badges"`
	Requirements int `json:"requirements"`
	Questions    int `json:"questions"`
	Skipped      int `json:"skipped"`
}

// CurriculumService administers requirement definitions.
type CurriculumService interface {
	CreateRequirement(ctx context.Context, in CreateRequirementInput) (*types.Requirement, error)
	DeleteRequirement(ctx context.Context, id uuid.UUID) (DeleteRequirementResult, error)
	AddQuestion(ctx context.Context, in AddQuestionInput) (*types.QuizQuestion, error)
	// Import loads a YAML curriculum in one transaction. Requirements whose
	// override key already exists at the same scope are skipped.
	Import(ctx context.Context, raw []byte) (ImportResult, error)
}

type curriculumService struct {
	db        *gorm.DB
	log       *logger.Logger
	reqs      repos.RequirementRepo
	badges    repos.BadgeRepo
	questions repos.QuizQuestionRepo
	progress  repos.ProgressRecordRepo
	keys      curriculum.OverrideKeyStrategy
}

func NewCurriculumService(
	db *gorm.DB,
	log *logger.Logger,
	reqs repos.RequirementRepo,
	badges repos.BadgeRepo,
	questions repos.QuizQuestionRepo,
	progress repos.ProgressRecordRepo,
	keys curriculum.OverrideKeyStrategy,
) CurriculumService {
	if keys == nil {
		keys = curriculum.CodeOrDescriptionKey{}
	}
	return &curriculumService{
		db:        db,
		log:       log.With("service", "CurriculumService"),
		reqs:      reqs,
		badges:    badges,
		questions: questions,
		progress:  progress,
		keys:      keys,
	}
}

// canManage reports whether p owns req's scope. GLOBAL content only arrives
// through Import. Destructive actions at club scope need ADMIN or OWNER.
func canManage(p *ctxutil.Principal, req *types.Requirement, destructive bool) bool {
	if p == nil || req == nil {
		return false
	}
	switch req.Scope {
	case curriculum.ScopeClub:
		if req.ClubID == nil || *req.ClubID != p.ClubID {
			return false
		}
		switch p.Role {
		case domainclub.RoleAdmin, domainclub.RoleOwner:
			return true
		case domainclub.RoleInstructor:
			return !destructive
		}
	case curriculum.ScopeDistrict:
		return p.Role == domainclub.RoleDistrict && req.District != nil && *req.District == p.District
	case curriculum.ScopeRegion:
		return p.Role == domainclub.RoleRegional && req.Region != nil && *req.Region == p.Region
	}
	return false
}

func (s *curriculumService) CreateRequirement(ctx context.Context, in CreateRequirementInput) (*types.Requirement, error) {
	const op = "Curriculum.Admin.CreateRequirement"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.RankClass) == "" && in.BadgeID == nil {
		return nil, domainagg.Validation(op, "requirement needs a rank_class or a badge_id")
	}

	row := &types.Requirement{
		Code:        strings.TrimSpace(in.Code),
		Description: strings.TrimSpace(in.Description),
		Area:        strings.TrimSpace(in.Area),
		RankClass:   strings.TrimSpace(in.RankClass),
		BadgeID:     in.BadgeID,
		Kind:        in.Kind,
		Scope:       in.Scope,
		EventID:     in.EventID,
	}
	switch in.Scope {
	case curriculum.ScopeClub:
		clubID := p.ClubID
		row.ClubID = &clubID
	case curriculum.ScopeRegion:
		region := p.Region
		row.Region = &region
	case curriculum.ScopeDistrict:
		district := p.District
		row.District = &district
	}
	if err := row.ValidateScope(); err != nil {
		return nil, domainagg.Validation(op, err.Error())
	}
	if !canManage(p, row, false) {
		return nil, domainagg.Unauthorized(op, "role may not author requirements at this scope")
	}

	dbc := dbctx.Background(ctx)
	if row.BadgeID != nil {
		b, err := s.badges.GetByID(dbc, *row.BadgeID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, domainagg.NotFound(op, fmt.Sprintf("badge not found: %s", *row.BadgeID))
		}
	}
	created, err := s.reqs.Create(dbc, []*types.Requirement{row})
	if err != nil {
		return nil, err
	}
	s.log.Info("requirement created", "requirement_id", created[0].ID, "scope", row.Scope, "author_id", p.MemberID)
	return created[0], nil
}

func (s *curriculumService) DeleteRequirement(ctx context.Context, id uuid.UUID) (DeleteRequirementResult, error) {
	const op = "Curriculum.Admin.DeleteRequirement"
	out := DeleteRequirementResult{RequirementID: id}
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return out, err
	}
	if id == uuid.Nil {
		return out, domainagg.Validation(op, "missing requirement id")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		req, err := s.reqs.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", id))
		}
		if !canManage(p, req, true) {
			return domainagg.Unauthorized(op, "role may not delete this requirement")
		}
		n, err := s.progress.DeleteByRequirementID(dbc, id)
		if err != nil {
			return err
		}
		out.DeletedRecords = n
		if err := s.questions.DeleteByRequirementID(dbc, id); err != nil {
			return err
		}
		return s.reqs.Delete(dbc, id)
	})
	if err != nil {
		return DeleteRequirementResult{RequirementID: id}, err
	}
	s.log.Warn("requirement deleted", "requirement_id", id, "deleted_records", out.DeletedRecords, "actor_id", p.MemberID)
	return out, nil
}

func (s *curriculumService) AddQuestion(ctx context.Context, in AddQuestionInput) (*types.QuizQuestion, error) {
	const op = "Curriculum.Admin.AddQuestion"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	if in.CorrectIndex >= len(in.Options) {
		return nil, domainagg.Validation(op, "correct index out of range")
	}
	dbc := dbctx.Background(ctx)
	req, err := s.reqs.GetByID(dbc, in.RequirementID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", in.RequirementID))
	}
	if !req.IsQuiz() {
		return nil, domainagg.Validation(op, "requirement is not a quiz")
	}
	if !canManage(p, req, false) {
		return nil, domainagg.Unauthorized(op, "role may not edit this requirement")
	}
	q, err := newQuestion(req.ID, in.Text, in.Options, in.CorrectIndex)
	if err != nil {
		return nil, err
	}
	created, err := s.questions.Create(dbc, []*types.QuizQuestion{q})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func newQuestion(requirementID uuid.UUID, text string, options []string, correct int) (*types.QuizQuestion, error) {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return &types.QuizQuestion{
		RequirementID: requirementID,
		Text:          strings.TrimSpace(text),
		Options:       datatypes.JSON(raw),
		CorrectIndex:  correct,
	}, nil
}

func (s *curriculumService) Import(ctx context.Context, raw []byte) (ImportResult, error) {
	const op = "Curriculum.Admin.Import"
	var out ImportResult
	var doc CurriculumDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return out, domainagg.Validation(op, fmt.Sprintf("invalid curriculum yaml: %v", err))
	}
	if err := validateInput(op, doc); err != nil {
		return out, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		badgeIDs := map[string]uuid.UUID{}
		ensureBadge := func(name, area string) (uuid.UUID, error) {
			name = strings.TrimSpace(name)
			if id, ok := badgeIDs[name]; ok {
				return id, nil
			}
			b, err := s.badges.UpsertByName(dbc, name, strings.TrimSpace(area))
			if err != nil {
				return uuid.Nil, err
			}
			if b == nil {
				return uuid.Nil, fmt.Errorf("badge %q not readable after upsert", name)
			}
			badgeIDs[name] = b.ID
			out.Badges++
			return b.ID, nil
		}
		for _, b := range doc.Badges {
			if strings.TrimSpace(b.Name) == "" {
				continue
			}
			if _, err := ensureBadge(b.Name, b.Area); err != nil {
				return err
			}
		}

		for i, rd := range doc.Requirements {
			row, err := requirementFromDoc(rd)
			if err != nil {
				return domainagg.Validation(op, fmt.Sprintf("requirements[%d]: %v", i, err))
			}
			if name := strings.TrimSpace(rd.Badge); name != "" {
				id, err := ensureBadge(name, rd.Area)
				if err != nil {
					return err
				}
				row.BadgeID = &id
			}
			if row.RankClass == "" && row.BadgeID == nil {
				return domainagg.Validation(op, fmt.Sprintf("requirements[%d]: needs rank_class or badge", i))
			}
			exists, err := s.existsAtScope(dbc, row)
			if err != nil {
				return err
			}
			if exists {
				out.Skipped++
				continue
			}
			created, err := s.reqs.Create(dbc, []*types.Requirement{row})
			if err != nil {
				return err
			}
			out.Requirements++

			qs := make([]*types.QuizQuestion, 0, len(rd.Questions))
			for j, qd := range rd.Questions {
				if qd.Correct >= len(qd.Options) {
					return domainagg.Validation(op, fmt.Sprintf("requirements[%d].questions[%d]: correct index out of range", i, j))
				}
				q, err := newQuestion(created[0].ID, qd.Text, qd.Options, qd.Correct)
				if err != nil {
					return err
				}
				qs = append(qs, q)
			}
			if len(qs) > 0 {
				if _, err := s.questions.Create(dbc, qs); err != nil {
					return err
				}
				out.Questions += len(qs)
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	s.log.Info("curriculum imported",
		"badges", out.Badges,
		"requirements", out.Requirements,
		"questions", out.Questions,
		"skipped", out.Skipped,
	)
	return out, nil
}

func requirementFromDoc(rd RequirementDoc) (*types.Requirement, error) {
	row := &types.Requirement{
		Code:        strings.TrimSpace(rd.Code),
		Description: strings.TrimSpace(rd.Description),
		Area:        strings.TrimSpace(rd.Area),
		RankClass:   strings.TrimSpace(rd.RankClass),
		Kind:        strings.ToUpper(strings.TrimSpace(rd.Kind)),
		Scope:       strings.ToUpper(strings.TrimSpace(rd.Scope)),
	}
	if row.Kind == "" {
		row.Kind = curriculum.KindText
	}
	if len(rd.Questions) > 0 {
		row.Kind = curriculum.KindQuiz
	}
	if row.Scope == "" {
		row.Scope = curriculum.ScopeGlobal
	}
	if v := strings.TrimSpace(rd.Region); v != "" {
		row.Region = &v
	}
	if v := strings.TrimSpace(rd.District); v != "" {
		row.District = &v
	}
	if v := strings.TrimSpace(rd.ClubID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		row.ClubID = &id
	}
	if err := row.ValidateScope(); err != nil {
		return nil, err
	}
	return row, nil
}

// existsAtScope reports whether a requirement with row's override key is
// already defined at the same scope and scope key.
func (s *curriculumService) existsAtScope(dbc dbctx.Context, row *types.Requirement) (bool, error) {
	f := repos.VisibilityFilter{RankClass: row.RankClass, BadgeID: row.BadgeID}
	if row.ClubID != nil {
		f.ClubID = *row.ClubID
	}
	if row.Region != nil {
		f.Region = *row.Region
	}
	if row.District != nil {
		f.District = *row.District
	}
	existing, err := s.reqs.ListVisible(dbc, f)
	if err != nil {
		return false, err
	}
	key := s.keys.Key(row)
	for _, e := range existing {
		if e.Scope == row.Scope && s.keys.Key(e) == key {
			return true, nil
		}
	}
	return false, nil
}
