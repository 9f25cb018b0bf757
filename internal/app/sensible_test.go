package app

import (
	"context"
	"testing"

	"github.com/yaroph/connect/internal/domain"
)

func TestSensibleRoutesToProfileField(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})

	q := standalone("q1")
	q.TagID = "vu_metier"
	seedPool(t, s, q)

	target, user, err := s.Sensible.Record(ctx, SensibleInput{
		UserID: "u1", QuestionID: "q1", Answer: "boulanger",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if target != SensibleTargetProfile {
		t.Fatalf("target = %q", target)
	}
	if user.Metier != "boulanger" {
		t.Fatalf("profile field not written: %+v", user)
	}
}

func TestSensibleRoutesToTaggedList(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})

	q := standalone("q1")
	q.TagID = "t1"
	if _, err := s.Catalog.SaveAll(ctx, CatalogData{
		Tags:      []domain.Tag{{ID: "t1", Name: "Fun"}},
		Questions: []domain.Question{q},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	target, user, err := s.Sensible.Record(ctx, SensibleInput{
		UserID: "u1", QuestionID: "q1", Answer: "oui",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if target != SensibleTargetTagged {
		t.Fatalf("target = %q", target)
	}
	if len(user.SensibleAnswersTagged) != 1 || user.SensibleAnswersTagged[0].Tag != "Fun" {
		t.Fatalf("tagged answers = %+v", user.SensibleAnswersTagged)
	}

	// Re-answering the same tag replaces, never appends.
	_, user, err = s.Sensible.Record(ctx, SensibleInput{
		UserID: "u1", QuestionID: "q1", Answer: "non",
	})
	if err != nil {
		t.Fatalf("record again: %v", err)
	}
	if len(user.SensibleAnswersTagged) != 1 || user.SensibleAnswersTagged[0].Answer != "non" {
		t.Fatalf("tagged answers after replace = %+v", user.SensibleAnswersTagged)
	}
}

func TestSensibleRoutesToUntaggedList(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})
	seedPool(t, s, standalone("q1"))

	target, user, err := s.Sensible.Record(ctx, SensibleInput{
		UserID: "u1", QuestionID: "q1", QuestionTitle: "Couleur préférée", Answer: "bleu",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if target != SensibleTargetUntagged {
		t.Fatalf("target = %q", target)
	}
	if len(user.SensibleAnswersUntagged) != 1 {
		t.Fatalf("untagged answers = %+v", user.SensibleAnswersUntagged)
	}
	got := user.SensibleAnswersUntagged[0]
	if got.QuestionID != "q1" || got.Answer != "bleu" {
		t.Fatalf("untagged answer = %+v", got)
	}
}

func TestSensibleUnknownUser(t *testing.T) {
	s := newTestStack()
	if _, _, err := s.Sensible.Record(context.Background(), SensibleInput{
		UserID: "ghost", QuestionID: "q1", Answer: "x",
	}); err == nil {
		t.Fatalf("expected user lookup failure")
	}
}

func TestSensibleCaptchaOnlySeedsCooldown(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})
	seedPool(t, s, standalone("q1"))

	target, _, err := s.Sensible.Record(ctx, SensibleInput{
		UserID: "u1", QuestionID: "q1", Answer: "7", IsCaptcha: true,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if target != SensibleTargetCaptcha {
		t.Fatalf("target = %q", target)
	}

	user, err := s.Users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(user.SensibleAnswersUntagged) != 0 || len(user.SensibleAnswersTagged) != 0 {
		t.Fatalf("captcha answer leaked onto the user: %+v", user)
	}

	cooldowns, err := s.Cooldowns.Load(ctx)
	if err != nil {
		t.Fatalf("cooldowns: %v", err)
	}
	if _, ok := cooldowns["u1"]["q1"]; !ok {
		t.Fatalf("captcha answer did not seed the cooldown: %+v", cooldowns)
	}
}

func TestSensiblePutsAnsweredQuestionOnCooldown(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1"})
	seedPool(t, s, standalone("q1"), standalone("q2"))

	if _, _, err := s.Sensible.Record(ctx, SensibleInput{
		UserID: "u1", QuestionID: "q1", Answer: "bleu",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	// The answered question must not come back on the next draw.
	res, err := s.Selector.SelectRandom(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].ID != "q2" {
		t.Fatalf("q1 reappeared right after its answer: %+v", res.Questions)
	}
}
