package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

const DefaultQuizSampleSize = 3

// QuizQuestionView is what a member sees. It never carries the answer key.
type QuizQuestionView struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Options []string  `json:"options"`
}

type QuizAnswer struct {
	QuestionID    uuid.UUID `validate:"required"`
	SelectedIndex int       `validate:"gte=0"`
}

type SubmitQuizInput struct {
	RequirementID uuid.UUID    `validate:"required"`
	Answers       []QuizAnswer `validate:"required,min=1,dive"`
}

type QuizResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// QuizService is the self-service completion path for QUIZ requirements.
type QuizService interface {
	GetQuiz(ctx context.Context, requirementID uuid.UUID) ([]QuizQuestionView, error)
	SubmitQuiz(ctx context.Context, in SubmitQuizInput) (QuizResult, error)
}

type quizService struct {
	db           *gorm.DB
	log          *logger.Logger
	agg          domainagg.ProgressAggregate
	reqs         repos.RequirementRepo
	questions    repos.QuizQuestionRepo
	members      repos.MemberRepo
	clubs        repos.ClubRepo
	participants ParticipationChecker
	dispatcher   *NotificationDispatcher
	metrics      *observability.Metrics
	sampleSize   int
	perm         func(n int) []int
}

type QuizServiceDeps struct {
	Aggregate     domainagg.ProgressAggregate
	Requirements  repos.RequirementRepo
	Questions     repos.QuizQuestionRepo
	Members       repos.MemberRepo
	Clubs         repos.ClubRepo
	Participation ParticipationChecker
	Dispatcher    *NotificationDispatcher
	Metrics       *observability.Metrics
	SampleSize    int
}

func NewQuizService(db *gorm.DB, log *logger.Logger, deps QuizServiceDeps) QuizService {
	size := deps.SampleSize
	if size <= 0 {
		size = DefaultQuizSampleSize
	}
	return &quizService{
		db:           db,
		log:          log.With("service", "QuizService"),
		agg:          deps.Aggregate,
		reqs:         deps.Requirements,
		questions:    deps.Questions,
		members:      deps.Members,
		clubs:        deps.Clubs,
		participants: deps.Participation,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		sampleSize:   size,
		perm:         rand.Perm,
	}
}

func (s *quizService) quizRequirement(dbc dbctx.Context, op string, id uuid.UUID) (*types.Requirement, error) {
	if id == uuid.Nil {
		return nil, domainagg.Validation(op, "missing requirement_id")
	}
	req, err := s.reqs.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", id))
	}
	if !req.IsQuiz() {
		return nil, domainagg.Validation(op, "requirement is not a quiz")
	}
	return req, nil
}

func (s *quizService) expected(bank int) int {
	return min(bank, s.sampleSize)
}

func (s *quizService) GetQuiz(ctx context.Context, requirementID uuid.UUID) ([]QuizQuestionView, error) {
	const op = "Curriculum.Quiz.Get"
	if _, err := requirePrincipal(ctx, op); err != nil {
		return nil, err
	}
	dbc := dbctx.Background(ctx)
	if _, err := s.quizRequirement(dbc, op, requirementID); err != nil {
		return nil, err
	}
	bank, err := s.questions.ListByRequirementID(dbc, requirementID)
	if err != nil {
		return nil, err
	}
	n := s.expected(len(bank))
	out := make([]QuizQuestionView, 0, n)
	for _, idx := range s.perm(len(bank))[:n] {
		q := bank[idx]
		opts, err := decodeOptions(q.Options)
		if err != nil {
			s.log.Warn("quiz question has malformed options", "question_id", q.ID, "error", err)
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "malformed quiz question", err)
		}
		out = append(out, QuizQuestionView{ID: q.ID, Text: q.Text, Options: opts})
	}
	return out, nil
}

func (s *quizService) SubmitQuiz(ctx context.Context, in SubmitQuizInput) (QuizResult, error) {
	const op = "Curriculum.Quiz.Submit"
	var out QuizResult
	principal, err := requirePrincipal(ctx, op)
	if err != nil {
		return out, err
	}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	dbc := dbctx.Background(ctx)
	req, err := s.quizRequirement(dbc, op, in.RequirementID)
	if err != nil {
		return out, err
	}
	member, err := s.members.GetByID(dbc, principal.MemberID)
	if err != nil {
		return out, err
	}
	if member == nil {
		return out, domainagg.NotFound(op, fmt.Sprintf("member not found: %s", principal.MemberID))
	}
	club, err := s.clubs.GetByID(dbc, member.ClubID)
	if err != nil {
		return out, err
	}
	if err := checkHierarchy(op, req, member, club); err != nil {
		return out, err
	}
	if err := checkParticipation(ctx, op, s.participants, req, member); err != nil {
		return out, err
	}

	bank, err := s.questions.ListByRequirementID(dbc, req.ID)
	if err != nil {
		return out, err
	}
	if len(bank) == 0 {
		return out, domainagg.Validation(op, "quiz has no questions")
	}
	if want := s.expected(len(bank)); len(in.Answers) != want {
		return out, domainagg.Validation(op, fmt.Sprintf("expected %d answers, got %d", want, len(in.Answers)))
	}
	byID := make(map[uuid.UUID]*types.QuizQuestion, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}
	seen := make(map[uuid.UUID]bool, len(in.Answers))
	passed := true
	for _, a := range in.Answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return out, domainagg.Validation(op, fmt.Sprintf("question does not belong to this quiz: %s", a.QuestionID))
		}
		if seen[a.QuestionID] {
			return out, domainagg.Validation(op, fmt.Sprintf("duplicate answer for question %s", a.QuestionID))
		}
		seen[a.QuestionID] = true
		if a.SelectedIndex != q.CorrectIndex {
			passed = false
		}
	}

	s.metrics.IncQuizAttempt(passed)
	if !passed {
		s.log.Info("quiz failed", "member_id", member.ID, "requirement_id", req.ID)
		out.Message = "Some answers were incorrect. Try again with a new set of questions."
		return out, nil
	}

	res, err := s.agg.CompleteByQuiz(ctx, domainagg.CompleteByQuizInput{
		MemberID:      member.ID,
		RequirementID: req.ID,
		CompletedAt:   time.Now().UTC(),
	})
	if err != nil {
		return out, err
	}
	recordRewards(s.metrics, res)
	s.dispatcher.Dispatch(ctx, res.Notifications)
	out.Success = true
	out.Message = "Quiz passed. Requirement completed."
	return out, nil
}

func decodeOptions(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var opts []string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}
