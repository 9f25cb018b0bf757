package app

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/yaroph/connect/internal/domain"
)

// PriorityDrawChance is the probability that a single draw is taken from the
// boosted pool instead of the normal one.
const PriorityDrawChance = 1.0 / 6.0

// MaxRandomBatch caps how many questions one selection call may return.
const MaxRandomBatch = 10

// SelectionResult is the outcome of a random draw request.
type SelectionResult struct {
	Questions            []domain.Question `json:"questions"`
	QuotaExceeded        string            `json:"quotaExceeded,omitempty"`
	NoQuestionsAvailable bool              `json:"noQuestionsAvailable"`
	DailyLimit           int               `json:"dailyLimit"`
	WeeklyLimit          int               `json:"weeklyLimit"`
	DailyRemaining       int               `json:"dailyRemaining"`
	WeeklyRemaining      int               `json:"weeklyRemaining"`
}

// Selector draws random standalone questions for a user, honoring quotas,
// cooldowns, tag retirement and priority boosts. Draw state is request-local
// so concurrent selections never share a random source.
type Selector struct {
	catalog   *Catalog
	users     *Users
	responses *Responses
	cooldowns *Cooldowns
	wallet    *Wallet
	settings  *SettingsService
	newRand   func() *rand.Rand
	now       func() time.Time
}

var selectorSeed atomic.Int64

func NewSelector(catalog *Catalog, users *Users, responses *Responses, cooldowns *Cooldowns, wallet *Wallet, settings *SettingsService) *Selector {
	return &Selector{
		catalog:   catalog,
		users:     users,
		responses: responses,
		cooldowns: cooldowns,
		wallet:    wallet,
		settings:  settings,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano() + selectorSeed.Add(1)))
		},
		now: time.Now,
	}
}

// SelectRandom draws up to n eligible questions for the user, without
// replacement. Quota exhaustion is not an error; it is reported on the
// result so the client can show the right message.
func (s *Selector) SelectRandom(ctx context.Context, userID string, n int) (SelectionResult, error) {
	if n < 1 {
		n = 1
	}
	if n > MaxRandomBatch {
		n = MaxRandomBatch
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return SelectionResult{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return SelectionResult{}, err
	}
	daily, weekly, err := s.wallet.Counts(ctx, userID)
	if err != nil {
		return SelectionResult{}, err
	}

	res := SelectionResult{
		Questions:       []domain.Question{},
		DailyLimit:      settings.RandomQuestionsPerDay,
		WeeklyLimit:     settings.RandomQuestionsPerWeek,
		DailyRemaining:  remaining(settings.RandomQuestionsPerDay, daily),
		WeeklyRemaining: remaining(settings.RandomQuestionsPerWeek, weekly),
	}
	if daily >= settings.RandomQuestionsPerDay {
		res.QuotaExceeded = QuotaDaily
		return res, nil
	}
	if weekly >= settings.RandomQuestionsPerWeek {
		res.QuotaExceeded = QuotaWeekly
		return res, nil
	}

	data, err := s.catalog.LoadAll(ctx)
	if err != nil {
		return SelectionResult{}, err
	}
	cooldownMap, err := s.cooldowns.Load(ctx)
	if err != nil {
		return SelectionResult{}, err
	}
	log, err := s.responses.Log(ctx)
	if err != nil {
		return SelectionResult{}, err
	}

	now := s.now()
	rnd := s.newRand()
	userCooldowns := cooldownMap[userID]

	// Tags already covered by any recorded answer are retired for this user.
	questionTag := make(map[string]string, len(data.Questions))
	for _, q := range data.Questions {
		questionTag[q.ID] = q.TagID
	}
	retiredTags := map[string]bool{}
	for _, a := range log.Answers {
		if a.UserID != userID {
			continue
		}
		if tag := questionTag[a.QuestionID]; tag != "" {
			retiredTags[tag] = true
		}
	}

	var pool, boosted []domain.Question
	var knownSeeds []string
	for _, q := range data.Questions {
		if !q.Active || q.QuestionnaireID() != "" {
			continue
		}
		// Profile fields already filled make their pseudo-tag questions moot;
		// seed their cooldown so the answered state survives the filter.
		if pt, ok := domain.PseudoTagByID(q.TagID); ok {
			if user.ProfileField(pt.Field) != "" {
				if _, seeded := userCooldowns[q.ID]; !seeded {
					knownSeeds = append(knownSeeds, q.ID)
				}
				continue
			}
		} else if q.TagID != "" && retiredTags[q.TagID] {
			// An answered tag retires its sibling questions only while their
			// own cooldown blocks them; a question never drawn before stays
			// eligible.
			if !CanShow(userCooldowns, q.ID, now, rnd) {
				continue
			}
		}
		if !CanShow(userCooldowns, q.ID, now, rnd) {
			continue
		}
		if domain.IsPriorityActive(q, now) {
			boosted = append(boosted, q)
		} else {
			pool = append(pool, q)
		}
	}
	s.cooldowns.MarkAsync(userID, knownSeeds...)

	for len(res.Questions) < n && (len(pool) > 0 || len(boosted) > 0) {
		fromBoosted := len(boosted) > 0 && (len(pool) == 0 || rnd.Float64() < PriorityDrawChance)
		if fromBoosted {
			i := rnd.Intn(len(boosted))
			res.Questions = append(res.Questions, boosted[i])
			boosted = append(boosted[:i], boosted[i+1:]...)
		} else {
			i := rnd.Intn(len(pool))
			res.Questions = append(res.Questions, pool[i])
			pool = append(pool[:i], pool[i+1:]...)
		}
	}
	res.NoQuestionsAvailable = len(res.Questions) == 0
	return res, nil
}
