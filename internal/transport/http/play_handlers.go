package http

import (
	"net/http"
	"strconv"
)

func (a *API) handleRandomQuestions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			n = parsed
		}
	}
	res, err := a.services.Selector.SelectRandom(r.Context(), userID, n)
	if err != nil {
		writeError(w, err)
		return
	}
	body := map[string]any{
		"ok":                   true,
		"questions":            res.Questions,
		"noQuestionsAvailable": res.NoQuestionsAvailable,
		"dailyLimit":           res.DailyLimit,
		"weeklyLimit":          res.WeeklyLimit,
		"dailyRemaining":       res.DailyRemaining,
		"weeklyRemaining":      res.WeeklyRemaining,
	}
	if res.QuotaExceeded != "" {
		body["quotaExceeded"] = res.QuotaExceeded
	}
	// Older clients expect a singular question field.
	if len(res.Questions) > 0 {
		body["question"] = res.Questions[0]
	} else {
		body["question"] = nil
	}
	writeJSON(w, http.StatusOK, body)
}

type earnRequest struct {
	UserID string `json:"userId"`
}

func (a *API) handleEarnRandom(w http.ResponseWriter, r *http.Request) {
	var req earnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	res, err := a.services.Wallet.CreditRandom(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleSkipRandom(w http.ResponseWriter, r *http.Request) {
	var req earnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	res, err := a.services.Wallet.SkipRandom(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type earnQuestionnaireRequest struct {
	UserID          string `json:"userId"`
	QuestionnaireID string `json:"questionnaireId"`
}

// handleEarnQuestionnaire routes through the completion validator so the
// reward stays exactly-once even for clients still calling the legacy earn
// endpoint.
func (a *API) handleEarnQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req earnQuestionnaireRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.QuestionnaireID == "" {
		badRequest(w, "userId and questionnaireId are required")
		return
	}
	res, err := a.services.Validator.Validate(r.Context(), req.QuestionnaireID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleCagnotte(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	pending, err := a.services.Wallet.Pending(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	daily, weekly, err := a.services.Wallet.Counts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	settings, err := a.services.Settings.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                      true,
		"pending":                 pending,
		"randomAnsweredToday":     daily,
		"randomAnsweredThisWeek":  weekly,
		"randomQuestionsPerDay":   settings.RandomQuestionsPerDay,
		"randomQuestionsPerWeek":  settings.RandomQuestionsPerWeek,
		"minimumWithdrawalAmount": settings.MinimumWithdrawalAmount,
	})
}
