package http

import (
	"net/http"
	"time"

	"github.com/yaroph/connect/internal/app"
	"github.com/yaroph/connect/internal/domain"
)

// Catalog scopes, widest to narrowest.
const (
	scopeFull    = "full"
	scopePublic  = "public"
	scopeMinimal = "minimal"
)

func (a *API) handleGetDB(w http.ResponseWriter, r *http.Request) {
	data, err := a.services.Catalog.LoadAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = scopeFull
	}
	writeJSON(w, http.StatusOK, shapeCatalog(data, scope, a.now()))
}

func (a *API) handlePutDB(w http.ResponseWriter, r *http.Request) {
	var in app.CatalogData
	if !decodeBody(w, r, &in) {
		return
	}
	data, err := a.services.Catalog.SaveAll(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// shapeCatalog narrows the catalog for non-admin consumers: public hides
// inactive content and answer keys, minimal additionally drops the question
// bodies.
func shapeCatalog(data app.CatalogData, scope string, now time.Time) app.CatalogData {
	if scope == scopeFull {
		return data
	}
	out := app.CatalogData{
		Tags:           data.Tags,
		Questions:      []domain.Question{},
		Questionnaires: []domain.Questionnaire{},
	}
	for _, qn := range data.Questionnaires {
		if !qn.ActiveNow(now) {
			continue
		}
		qn.Code = ""
		out.Questionnaires = append(out.Questionnaires, qn)
	}
	if scope == scopeMinimal {
		return out
	}
	visible := make(map[string]bool, len(out.Questionnaires))
	for _, qn := range out.Questionnaires {
		visible[qn.ID] = true
	}
	for _, q := range data.Questions {
		if !q.Active {
			continue
		}
		if id := q.QuestionnaireID(); id != "" && !visible[id] {
			continue
		}
		q.CorrectAnswer = ""
		for i := range q.Choices {
			q.Choices[i].IsCorrect = false
		}
		out.Questions = append(out.Questions, q)
	}
	return out
}

func (a *API) handleQuestionnaireQuestions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := a.services.Catalog.LoadAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var qn *domain.Questionnaire
	for i := range data.Questionnaires {
		if data.Questionnaires[i].ID == id {
			qn = &data.Questionnaires[i]
			break
		}
	}
	if qn == nil {
		writeError(w, domain.ErrQuestionnaireNotFound)
		return
	}
	byID := make(map[string]domain.Question, len(data.Questions))
	for _, q := range data.Questions {
		byID[q.ID] = q
	}
	questions := make([]domain.Question, 0, len(qn.QuestionOrder))
	for _, qid := range qn.QuestionOrder {
		if q, ok := byID[qid]; ok {
			questions = append(questions, q)
		}
	}
	body := map[string]any{
		"questionnaire": qn,
		"questions":     questions,
	}
	if userID := r.URL.Query().Get("userId"); userID != "" {
		ids, completed, err := a.services.Responses.AnsweredSet(r.Context(), id, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		body["answeredQuestionIds"] = ids
		body["completed"] = completed
	}
	writeJSON(w, http.StatusOK, body)
}
