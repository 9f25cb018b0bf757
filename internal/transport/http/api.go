package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/yaroph/connect/internal/app"
	"github.com/yaroph/connect/internal/domain"
)

// API exposes every service over REST plus the websocket activity feed.
type API struct {
	services *app.Services
	now      func() time.Time
}

func NewAPI(services *app.Services) *API {
	return &API{services: services, now: time.Now}
}

// Router builds the full route table.
func (a *API) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("GET /api/db", a.handleGetDB)
	mux.HandleFunc("PUT /api/db", a.handlePutDB)
	mux.HandleFunc("GET /api/questionnaires/{id}/questions", a.handleQuestionnaireQuestions)

	mux.HandleFunc("GET /api/questions/random/{userId}", a.handleRandomQuestions)
	mux.HandleFunc("POST /api/earn/random", a.handleEarnRandom)
	mux.HandleFunc("POST /api/skip/random", a.handleSkipRandom)
	mux.HandleFunc("POST /api/earn/questionnaire", a.handleEarnQuestionnaire)

	mux.HandleFunc("POST /api/answers/append", a.handleAppendAnswer)
	mux.HandleFunc("POST /api/questionnaire/{id}/sync-answers", a.handleSyncAnswers)
	mux.HandleFunc("GET /api/questionnaire/{id}/answered/{userId}", a.handleAnswered)
	mux.HandleFunc("POST /api/questionnaire/{id}/validate", a.handleValidate)
	mux.HandleFunc("POST /api/questionnaire/{id}/mark-completed", a.handleMarkCompleted)
	mux.HandleFunc("POST /api/completions/append", a.handleAppendCompletion)

	mux.HandleFunc("GET /api/user/{userId}/questionnaires-progress", a.handleProgress)
	mux.HandleFunc("GET /api/user/{userId}/cagnotte", a.handleCagnotte)
	mux.HandleFunc("POST /api/user/sensible", a.handleSensible)
	mux.HandleFunc("POST /api/user/request-withdraw", a.handleRequestWithdraw)

	mux.HandleFunc("GET /api/admin/users", a.handleListUsers)
	mux.HandleFunc("GET /api/admin/users/{id}", a.handleGetUser)
	mux.HandleFunc("PUT /api/admin/users/{id}", a.handleUpdateUser)
	mux.HandleFunc("DELETE /api/admin/users/{id}", a.handleDeleteUser)
	mux.HandleFunc("DELETE /api/admin/answers/{id}", a.handleDeleteAnswer)
	mux.HandleFunc("GET /api/admin/payments", a.handleListPayments)
	mux.HandleFunc("POST /api/admin/payments/{id}/validate", a.handleValidatePayment)
	mux.HandleFunc("POST /api/admin/payments/{id}/cancel", a.handleCancelPayment)
	mux.HandleFunc("GET /api/admin/settings", a.handleGetSettings)
	mux.HandleFunc("PUT /api/admin/settings", a.handlePutSettings)

	mux.HandleFunc("GET /api/images/{filename}", a.handleGetImage)
	mux.HandleFunc("POST /api/images/upload", a.handleUploadImage)

	mux.HandleFunc("GET /ws/activity", a.handleActivityWS)

	return mux
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuestionnaireNotFound),
		errors.Is(err, domain.ErrAnswerNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrImageNotFound),
		errors.Is(err, domain.ErrKeyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidImage):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrWithdrawalPending),
		errors.Is(err, domain.ErrBelowMinimum),
		errors.Is(err, domain.ErrWithdrawalQuota):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
