package app

import (
	"context"
	"time"

	"github.com/yaroph/connect/internal/domain"
)

// ValidationResult describes the outcome of a completion check. OK is always
// true on a decided outcome; hard failures surface as errors instead.
type ValidationResult struct {
	OK                  bool     `json:"ok"`
	AlreadyCompleted    bool     `json:"alreadyCompleted"`
	Completed           bool     `json:"completed"`
	TotalQuestions      int      `json:"totalQuestions"`
	AnsweredCount       int      `json:"answeredCount"`
	AnsweredQuestionIDs []string `json:"answeredQuestionIds"`
	MissingQuestionIDs  []string `json:"missingQuestionIds"`
	Reward              float64  `json:"reward"`
	Pending             float64  `json:"pending"`
}

// Validator decides whether a questionnaire session is complete and grants
// the reward exactly once. The coverage check and the completion write run
// under the response store's mutex so two concurrent validations cannot both
// credit.
type Validator struct {
	catalog   *Catalog
	responses *Responses
	wallet    *Wallet
	users     *Users
	events    *ActivityHub
	now       func() time.Time
}

func NewValidator(catalog *Catalog, responses *Responses, wallet *Wallet, users *Users, events *ActivityHub) *Validator {
	return &Validator{
		catalog:   catalog,
		responses: responses,
		wallet:    wallet,
		users:     users,
		events:    events,
		now:       time.Now,
	}
}

// ProgressItem summarizes one questionnaire's state for a user.
type ProgressItem struct {
	QuestionnaireID string  `json:"questionnaireId"`
	Name            string  `json:"name"`
	Reward          float64 `json:"reward"`
	TotalQuestions  int     `json:"totalQuestions"`
	AnsweredCount   int     `json:"answeredCount"`
	Completed       bool    `json:"completed"`
}

// Progress reports, for every questionnaire in the catalog, how far the user
// has gotten. Expired or not-yet-active questionnaires still show up so a
// user can see past completions. A questionnaire counts as completed when a
// completion is on record or every one of its questions has an answer.
func (v *Validator) Progress(ctx context.Context, userID string) ([]ProgressItem, error) {
	data, err := v.catalog.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	log, err := v.responses.Log(ctx)
	if err != nil {
		return nil, err
	}
	items := []ProgressItem{}
	for _, qn := range data.Questionnaires {
		answered, completed, err := answeredSetIn(log, qn.ID, userID)
		if err != nil {
			return nil, err
		}
		total := len(qn.QuestionOrder)
		items = append(items, ProgressItem{
			QuestionnaireID: qn.ID,
			Name:            qn.Name,
			Reward:          qn.Reward,
			TotalQuestions:  total,
			AnsweredCount:   len(answered),
			Completed:       completed || (total > 0 && len(answered) >= total),
		})
	}
	return items, nil
}

// Validate checks that the user answered every question of the questionnaire
// and, on first success, records the completion and credits the reward.
func (v *Validator) Validate(ctx context.Context, questionnaireID, userID string) (ValidationResult, error) {
	data, err := v.catalog.LoadAll(ctx)
	if err != nil {
		return ValidationResult{}, err
	}
	var qn *domain.Questionnaire
	for i := range data.Questionnaires {
		if data.Questionnaires[i].ID == questionnaireID {
			qn = &data.Questionnaires[i]
			break
		}
	}
	if qn == nil {
		return ValidationResult{}, domain.ErrQuestionnaireNotFound
	}
	userName := v.users.ResolveName(ctx, userID, "")

	res := ValidationResult{OK: true}
	err = v.responses.Exclusive(func() error {
		log, err := v.responses.loadLog(ctx)
		if err != nil {
			return err
		}
		answered, completed, err := answeredSetIn(log, questionnaireID, userID)
		if err != nil {
			return err
		}
		res.TotalQuestions = len(qn.QuestionOrder)
		res.AnsweredQuestionIDs = answered
		res.AnsweredCount = len(answered)
		if completed {
			res.AlreadyCompleted = true
			return nil
		}

		answeredSet := make(map[string]bool, len(answered))
		for _, id := range answered {
			answeredSet[id] = true
		}
		missing := []string{}
		for _, id := range qn.QuestionOrder {
			if !answeredSet[id] {
				missing = append(missing, id)
			}
		}
		res.MissingQuestionIDs = missing
		if len(missing) > 0 {
			return nil
		}

		log.Completions = append(log.Completions, domain.Completion{
			ID:              domain.NewID("comp"),
			UserID:          userID,
			UserName:        userName,
			QuestionnaireID: questionnaireID,
			CompletedAt:     domain.NowISO(v.now()),
		})
		if err := v.responses.saveLog(ctx, log); err != nil {
			return err
		}

		// Only a positive questionnaire reward credits anything; completion
		// itself is still recorded for zero-reward questionnaires.
		if amount := qn.Reward; amount > 0 {
			pending, err := v.wallet.CreditQuestionnaire(ctx, userID, amount)
			if err != nil {
				return err
			}
			res.Reward = amount
			res.Pending = pending
		}
		res.Completed = true
		return nil
	})
	if err != nil {
		return ValidationResult{}, err
	}

	if res.Completed {
		now := domain.NowISO(v.now())
		v.events.Publish(ActivityEvent{
			Type:            EventQuestionnaireCompleted,
			UserID:          userID,
			UserName:        userName,
			QuestionnaireID: questionnaireID,
			At:              now,
		})
		if res.Reward > 0 {
			v.events.Publish(ActivityEvent{
				Type:            EventRewardCredited,
				UserID:          userID,
				UserName:        userName,
				QuestionnaireID: questionnaireID,
				Amount:          res.Reward,
				At:              now,
			})
		}
	}
	if res.AlreadyCompleted || res.Completed {
		if pending, err := v.wallet.Pending(ctx, userID); err == nil {
			res.Pending = pending
		}
	}
	return res, nil
}
