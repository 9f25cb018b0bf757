package app

import (
	"context"
	"sync"
	"time"

	"github.com/yaroph/connect/internal/domain"
)

// AnswerInput is one incoming response. QuestionnaireID is nil for
// random-mode answers.
type AnswerInput struct {
	UserID          string
	UserName        string
	QuestionnaireID *string
	QuestionID      string
	QuestionTitle   string
	Answer          string
	Correct         bool
	IsCaptcha       bool
}

// SyncItem is one answer in a bulk resync of a questionnaire session.
type SyncItem struct {
	QuestionID    string `json:"questionId"`
	QuestionTitle string `json:"questionTitle"`
	Answer        string `json:"answer"`
	Correct       bool   `json:"correct"`
}

// SyncResult counts what a bulk resync actually changed.
type SyncResult struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Responses owns reponses.json. A single mutex guards every mutation so the
// read-modify-write cycle on the log is atomic within the process; the
// completion validator shares the same mutex through Exclusive.
type Responses struct {
	docs      *Documents
	images    *Images
	users     *Users
	cooldowns *Cooldowns
	events    *ActivityHub

	mu  sync.Mutex
	now func() time.Time
}

func NewResponses(docs *Documents, images *Images, users *Users, cooldowns *Cooldowns, events *ActivityHub) *Responses {
	return &Responses{
		docs:      docs,
		images:    images,
		users:     users,
		cooldowns: cooldowns,
		events:    events,
		now:       time.Now,
	}
}

// loadLog and saveLog assume mu is held (or the caller is a pure reader
// accepting a possibly stale snapshot).
func (r *Responses) loadLog(ctx context.Context) (domain.ResponseLog, error) {
	var log domain.ResponseLog
	fallback := domain.ResponseLog{Answers: []domain.Answer{}, Completions: []domain.Completion{}}
	if err := r.docs.Read(ctx, DocResponses, &log, fallback); err != nil {
		return domain.ResponseLog{}, err
	}
	if log.Answers == nil {
		log.Answers = []domain.Answer{}
	}
	if log.Completions == nil {
		log.Completions = []domain.Completion{}
	}
	return log, nil
}

func (r *Responses) saveLog(ctx context.Context, log domain.ResponseLog) error {
	return r.docs.Write(ctx, DocResponses, log)
}

// Log returns a read-only snapshot of the response log.
func (r *Responses) Log(ctx context.Context) (domain.ResponseLog, error) {
	return r.loadLog(ctx)
}

// Exclusive runs fn while holding the response mutex. Used by the completion
// validator so coverage check and reward grant see a frozen log.
func (r *Responses) Exclusive(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// UpsertAnswer records an answer, updating in place when the same user
// already answered the same question in the same mode. Returns whether an
// existing entry was updated.
func (r *Responses) UpsertAnswer(ctx context.Context, in AnswerInput) (domain.Answer, bool, error) {
	if IsInlineImage(in.Answer) {
		url, err := r.images.Store(ctx, in.Answer, domain.NewID("ansimg"))
		if err != nil {
			return domain.Answer{}, false, err
		}
		in.Answer = url
	}
	in.UserName = r.users.ResolveName(ctx, in.UserID, in.UserName)

	r.mu.Lock()
	defer r.mu.Unlock()
	log, err := r.loadLog(ctx)
	if err != nil {
		return domain.Answer{}, false, err
	}
	answer, updated := upsertInto(&log, in, r.now())
	if err := r.saveLog(ctx, log); err != nil {
		return domain.Answer{}, false, err
	}

	if answer.QuestionnaireID == nil {
		r.cooldowns.MarkAsync(in.UserID, in.QuestionID)
	}
	r.events.Publish(ActivityEvent{
		Type:            EventAnswerRecorded,
		UserID:          in.UserID,
		UserName:        in.UserName,
		QuestionID:      in.QuestionID,
		QuestionnaireID: answerQuestionnaireID(answer),
		At:              domain.NowISO(r.now()),
	})
	return answer, updated, nil
}

func answerQuestionnaireID(a domain.Answer) string {
	if a.QuestionnaireID == nil {
		return ""
	}
	return *a.QuestionnaireID
}

// upsertInto applies one answer to the log in place. Caller holds the mutex.
func upsertInto(log *domain.ResponseLog, in AnswerInput, now time.Time) (domain.Answer, bool) {
	qnID := ""
	if in.QuestionnaireID != nil {
		qnID = *in.QuestionnaireID
	}
	for i := range log.Answers {
		if log.Answers[i].Matches(in.UserID, in.QuestionID, qnID) {
			a := &log.Answers[i]
			a.Answer = in.Answer
			a.Correct = in.Correct
			a.IsCaptcha = in.IsCaptcha
			if in.QuestionTitle != "" {
				a.QuestionTitle = in.QuestionTitle
			}
			if in.UserName != "" {
				a.UserName = in.UserName
			}
			a.UpdatedAt = domain.NowISO(now)
			return *a, true
		}
	}
	answer := domain.Answer{
		ID:            domain.NewID("ans"),
		UserID:        in.UserID,
		UserName:      in.UserName,
		QuestionID:    in.QuestionID,
		QuestionTitle: in.QuestionTitle,
		Answer:        in.Answer,
		Correct:       in.Correct,
		IsCaptcha:     in.IsCaptcha,
		CreatedAt:     domain.NowISO(now),
	}
	if in.QuestionnaireID != nil && *in.QuestionnaireID != "" {
		v := *in.QuestionnaireID
		answer.QuestionnaireID = &v
	}
	log.Answers = append(log.Answers, answer)
	return answer, false
}

// SyncAnswers replays a whole questionnaire session in one exclusive pass,
// upserting each answer under the questionnaire's identity.
func (r *Responses) SyncAnswers(ctx context.Context, questionnaireID, userID, userName string, items []SyncItem) (SyncResult, error) {
	userName = r.users.ResolveName(ctx, userID, userName)

	r.mu.Lock()
	defer r.mu.Unlock()
	log, err := r.loadLog(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	var res SyncResult
	now := r.now()
	for _, it := range items {
		if it.QuestionID == "" {
			continue
		}
		qnID := questionnaireID
		_, updated := upsertInto(&log, AnswerInput{
			UserID:          userID,
			UserName:        userName,
			QuestionnaireID: &qnID,
			QuestionID:      it.QuestionID,
			QuestionTitle:   it.QuestionTitle,
			Answer:          it.Answer,
			Correct:         it.Correct,
		}, now)
		if updated {
			res.Updated++
		} else {
			res.Created++
		}
	}
	if err := r.saveLog(ctx, log); err != nil {
		return SyncResult{}, err
	}
	res.Synced = res.Created + res.Updated
	return res, nil
}

// AnsweredSet lists the question ids the user has answered within a
// questionnaire, and whether a completion is already recorded.
func (r *Responses) AnsweredSet(ctx context.Context, questionnaireID, userID string) ([]string, bool, error) {
	log, err := r.loadLog(ctx)
	if err != nil {
		return nil, false, err
	}
	return answeredSetIn(log, questionnaireID, userID)
}

func answeredSetIn(log domain.ResponseLog, questionnaireID, userID string) ([]string, bool, error) {
	seen := map[string]bool{}
	ids := []string{}
	for _, a := range log.Answers {
		if a.UserID != userID || a.QuestionnaireID == nil || *a.QuestionnaireID != questionnaireID {
			continue
		}
		if !seen[a.QuestionID] {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}
	for _, c := range log.Completions {
		if c.UserID == userID && c.QuestionnaireID == questionnaireID {
			return ids, true, nil
		}
	}
	return ids, false, nil
}

// DeleteAnswer removes one answer by id.
func (r *Responses) DeleteAnswer(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, err := r.loadLog(ctx)
	if err != nil {
		return err
	}
	for i, a := range log.Answers {
		if a.ID == id {
			log.Answers = append(log.Answers[:i], log.Answers[i+1:]...)
			return r.saveLog(ctx, log)
		}
	}
	return domain.ErrAnswerNotFound
}

// MarkCompleted records a completion without coverage check or reward. The
// resync escape hatch for sessions that finished client-side but lost the
// validation call. Idempotent; reports whether it already existed.
func (r *Responses) MarkCompleted(ctx context.Context, questionnaireID, userID string) (bool, error) {
	return r.appendCompletion(ctx, questionnaireID, userID, "", true)
}

// AppendCompletion records a completion directly, without reward.
func (r *Responses) AppendCompletion(ctx context.Context, questionnaireID, userID, userName string) (bool, error) {
	return r.appendCompletion(ctx, questionnaireID, userID, userName, false)
}

func (r *Responses) appendCompletion(ctx context.Context, questionnaireID, userID, userName string, autoMarked bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, err := r.loadLog(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range log.Completions {
		if c.UserID == userID && c.QuestionnaireID == questionnaireID {
			return true, nil
		}
	}
	log.Completions = append(log.Completions, domain.Completion{
		ID:              domain.NewID("comp"),
		UserID:          userID,
		UserName:        userName,
		QuestionnaireID: questionnaireID,
		CompletedAt:     domain.NowISO(r.now()),
		AutoMarked:      autoMarked,
	})
	if err := r.saveLog(ctx, log); err != nil {
		return false, err
	}
	return false, nil
}

// RemoveUser erases every answer and completion the user ever recorded.
func (r *Responses) RemoveUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, err := r.loadLog(ctx)
	if err != nil {
		return err
	}
	answers := log.Answers[:0]
	for _, a := range log.Answers {
		if a.UserID != userID {
			answers = append(answers, a)
		}
	}
	completions := log.Completions[:0]
	for _, c := range log.Completions {
		if c.UserID != userID {
			completions = append(completions, c)
		}
	}
	log.Answers = answers
	log.Completions = completions
	return r.saveLog(ctx, log)
}
