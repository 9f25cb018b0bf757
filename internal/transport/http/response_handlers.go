package http

import (
	"net/http"

	"github.com/yaroph/connect/internal/app"
)

type appendAnswerRequest struct {
	UserID          string  `json:"userId"`
	UserName        string  `json:"userName"`
	QuestionnaireID *string `json:"questionnaireId"`
	QuestionID      string  `json:"questionId"`
	QuestionTitle   string  `json:"questionTitle"`
	Answer          string  `json:"answer"`
	Correct         bool    `json:"correct"`
	IsCaptcha       bool    `json:"isCaptcha"`
}

func (a *API) handleAppendAnswer(w http.ResponseWriter, r *http.Request) {
	var req appendAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.QuestionID == "" {
		badRequest(w, "userId and questionId are required")
		return
	}
	answer, updated, err := a.services.Responses.UpsertAnswer(r.Context(), app.AnswerInput{
		UserID:          req.UserID,
		UserName:        req.UserName,
		QuestionnaireID: req.QuestionnaireID,
		QuestionID:      req.QuestionID,
		QuestionTitle:   req.QuestionTitle,
		Answer:          req.Answer,
		Correct:         req.Correct,
		IsCaptcha:       req.IsCaptcha,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"answer":  answer,
		"updated": updated,
	})
}

type syncAnswersRequest struct {
	UserID   string         `json:"userId"`
	UserName string         `json:"userName"`
	Answers  []app.SyncItem `json:"answers"`
}

func (a *API) handleSyncAnswers(w http.ResponseWriter, r *http.Request) {
	questionnaireID := r.PathValue("id")
	var req syncAnswersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	res, err := a.services.Responses.SyncAnswers(r.Context(), questionnaireID, req.UserID, req.UserName, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleAnswered(w http.ResponseWriter, r *http.Request) {
	questionnaireID := r.PathValue("id")
	userID := r.PathValue("userId")
	ids, completed, err := a.services.Responses.AnsweredSet(r.Context(), questionnaireID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                  true,
		"answeredQuestionIds": ids,
		"completed":           completed,
	})
}

type userIDRequest struct {
	UserID string `json:"userId"`
}

func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	questionnaireID := r.PathValue("id")
	var req userIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	res, err := a.services.Validator.Validate(r.Context(), questionnaireID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	questionnaireID := r.PathValue("id")
	var req userIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	already, err := a.services.Responses.MarkCompleted(r.Context(), questionnaireID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"marked":           true,
		"alreadyCompleted": already,
	})
}

type appendCompletionRequest struct {
	UserID          string `json:"userId"`
	UserName        string `json:"userName"`
	QuestionnaireID string `json:"questionnaireId"`
}

func (a *API) handleAppendCompletion(w http.ResponseWriter, r *http.Request) {
	var req appendCompletionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.QuestionnaireID == "" {
		badRequest(w, "userId and questionnaireId are required")
		return
	}
	already, err := a.services.Responses.AppendCompletion(r.Context(), req.QuestionnaireID, req.UserID, req.UserName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"recorded":         true,
		"alreadyCompleted": already,
	})
}

func (a *API) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	if err := a.services.Responses.DeleteAnswer(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *API) handleProgress(w http.ResponseWriter, r *http.Request) {
	items, err := a.services.Validator.Progress(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"questionnaires": items,
	})
}

func (a *API) handleSensible(w http.ResponseWriter, r *http.Request) {
	var req app.SensibleInput
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.QuestionID == "" {
		badRequest(w, "userId and questionId are required")
		return
	}
	target, user, err := a.services.Sensible.Record(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if target == app.SensibleTargetCaptcha {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"captcha": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"storedIn": target,
		"user":     user,
	})
}
