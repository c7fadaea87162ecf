package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/http/response"
	"github.com/yungbote/trailmark-backend/internal/services"
)

type QuizHandler struct {
	quiz services.QuizService
}

func NewQuizHandler(quiz services.QuizService) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

// GET /api/requirements/:id/quiz
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_requirement_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	questions, err := h.quiz.GetQuiz(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requirement_id": id, "questions": questions})
}

type quizAnswerRequest struct {
	QuestionID    uuid.UUID `json:"question_id"`
	SelectedIndex int       `json:"selected_index"`
}

type submitQuizRequest struct {
	Answers []quizAnswerRequest `json:"answers"`
}

// POST /api/requirements/:id/quiz
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_requirement_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req submitQuizRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	answers := make([]services.QuizAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, services.QuizAnswer{QuestionID: a.QuestionID, SelectedIndex: a.SelectedIndex})
	}
	res, err := h.quiz.SubmitQuiz(c.Request.Context(), services.SubmitQuizInput{RequirementID: id, Answers: answers})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
