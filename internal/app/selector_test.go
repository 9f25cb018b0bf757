package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yaroph/connect/internal/domain"
)

func seedPool(t *testing.T, s *Services, questions ...domain.Question) {
	t.Helper()
	if _, err := s.Catalog.SaveAll(context.Background(), CatalogData{Questions: questions}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}

func standalone(id string) domain.Question {
	return domain.Question{ID: id, Title: id, Active: true}
}

func TestSelectRandomUnknownUser(t *testing.T) {
	s := newTestStack()
	if _, err := s.Selector.SelectRandom(context.Background(), "ghost", 1); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestSelectRandomNeverDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})
	seedPool(t, s, standalone("q1"), standalone("q2"), standalone("q3"), standalone("q4"), standalone("q5"))

	res, err := s.Selector.SelectRandom(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Questions) != 5 {
		t.Fatalf("expected the whole pool, got %d", len(res.Questions))
	}
	seen := map[string]bool{}
	for _, q := range res.Questions {
		if seen[q.ID] {
			t.Fatalf("question %s drawn twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSelectRandomExcludesInactiveAndQuestionnaireQuestions(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})

	linked := domain.Question{ID: "q2", Title: "linked", Active: true, Questionnaire: qnRef("qn1")}
	inactive := domain.Question{ID: "q3", Title: "off", Active: false}
	if _, err := s.Catalog.SaveAll(ctx, CatalogData{
		Questions:      []domain.Question{standalone("q1"), linked, inactive},
		Questionnaires: []domain.Questionnaire{{ID: "qn1", Name: "Q", Visible: true}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := s.Selector.SelectRandom(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].ID != "q1" {
		t.Fatalf("pool = %+v", res.Questions)
	}
}

func TestSelectRandomQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})
	seedPool(t, s, standalone("q1"))
	if _, err := s.Settings.Update(ctx, domain.Settings{
		RandomQuestionsPerDay:     1,
		RandomQuestionsPerWeek:    50,
		MinimumWithdrawalAmount:   50,
		EarningsPerRandomQuestion: 0.10,
		EarningsPerQuestionnaire:  1,
		MaxWithdrawalsPerMonth:    5,
	}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if _, err := s.Wallet.CreditRandom(ctx, "u1"); err != nil {
		t.Fatalf("consume quota: %v", err)
	}

	res, err := s.Selector.SelectRandom(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res.QuotaExceeded != QuotaDaily || len(res.Questions) != 0 {
		t.Fatalf("expected daily quota refusal, got %+v", res)
	}
}

func TestSelectRandomHidesQuestionsOnCooldown(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})
	seedPool(t, s, standalone("q1"), standalone("q2"))
	if err := s.Cooldowns.Mark(ctx, "u1", "q1"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	res, err := s.Selector.SelectRandom(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].ID != "q2" {
		t.Fatalf("cooldown question leaked: %+v", res.Questions)
	}
}

func TestSelectRandomRareReappearanceAfterCooldown(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})
	seedPool(t, s, standalone("q1"))

	// Past the window by a day: the question reappears with 5% per draw.
	old := fixedNow.Add(-(CooldownDays + 1) * 24 * time.Hour)
	s.Cooldowns.now = func() time.Time { return old }
	if err := s.Cooldowns.Mark(ctx, "u1", "q1"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	shown := 0
	const trials = 1000
	for i := 0; i < trials; i++ {
		res, err := s.Selector.SelectRandom(ctx, "u1", 1)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if len(res.Questions) == 1 {
			shown++
		}
	}
	if shown < 15 || shown > 110 {
		t.Fatalf("reappearance rate %d/%d far from 5%%", shown, trials)
	}
}

func TestSelectRandomFiltersAnsweredPseudoTagQuestions(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1", Metier: "ingénieur"})

	job := standalone("q1")
	job.TagID = "vu_metier"
	seedPool(t, s, job, standalone("q2"))

	res, err := s.Selector.SelectRandom(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].ID != "q2" {
		t.Fatalf("profile-known question leaked: %+v", res.Questions)
	}
}

func TestSelectRandomRetiredTagDefersToCooldown(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})

	a := standalone("q1")
	a.TagID = "t1"
	b := standalone("q2")
	b.TagID = "t1"
	c := standalone("q3")
	if _, err := s.Catalog.SaveAll(ctx, CatalogData{
		Tags:      []domain.Tag{{ID: "t1", Name: "Fun"}},
		Questions: []domain.Question{a, b, c},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := s.Responses.UpsertAnswer(ctx, AnswerInput{UserID: "u1", QuestionID: "q1", Answer: "x"}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := s.Cooldowns.Mark(ctx, "u1", "q1"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// q1 sits on its own cooldown. q2 shares the answered tag but was never
	// drawn itself, so it must stay eligible.
	res, err := s.Selector.SelectRandom(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	got := map[string]bool{}
	for _, q := range res.Questions {
		got[q.ID] = true
	}
	if len(res.Questions) != 2 || !got["q2"] || !got["q3"] {
		t.Fatalf("pool = %+v, want q2 and q3", res.Questions)
	}
}

func TestSelectRandomRetiredTagQuestionKeepsSurfacing(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})

	a := standalone("q1")
	a.TagID = "t1"
	b := standalone("q2")
	b.TagID = "t1"
	if _, err := s.Catalog.SaveAll(ctx, CatalogData{
		Tags:      []domain.Tag{{ID: "t1", Name: "Fun"}},
		Questions: []domain.Question{a, b},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := s.Responses.UpsertAnswer(ctx, AnswerInput{UserID: "u1", QuestionID: "q1", Answer: "x"}); err != nil {
		t.Fatalf("answer: %v", err)
	}

	// Long after the answer, q2 still has no cooldown entry of its own and
	// must surface on every draw, not vanish behind its answered tag.
	later := fixedNow.Add(60 * 24 * time.Hour)
	setClock(s, later)
	for i := 0; i < 50; i++ {
		res, err := s.Selector.SelectRandom(ctx, "u1", 10)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		found := false
		for _, q := range res.Questions {
			if q.ID == "q2" {
				found = true
			}
		}
		if !found {
			t.Fatalf("draw %d: q2 missing from %+v", i, res.Questions)
		}
	}
}

func TestSelectRandomBoostsPriorityQuestions(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})

	boosted := standalone("q1")
	boosted.Priority = true
	boosted.PriorityUntil = fixedNow.AddDate(0, 1, 0).Format("2006-01-02")
	seedPool(t, s, boosted, standalone("q2"))

	picks := 0
	const trials = 600
	for i := 0; i < trials; i++ {
		res, err := s.Selector.SelectRandom(ctx, "u1", 1)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if len(res.Questions) == 1 && res.Questions[0].ID == "q1" {
			picks++
		}
	}
	// A single draw takes the boosted question with probability 1/6, so
	// around 100 of 600 trials; generous bounds keep the test stable.
	low, high := 55, 165
	if picks < low || picks > high {
		t.Fatalf("boosted question picked %d/%d times, expected between %d and %d", picks, trials, low, high)
	}
}
