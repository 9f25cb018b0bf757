package app

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// CooldownDays is how long an answered question stays hidden from the
// random selector before it becomes eligible for rare reappearance.
const CooldownDays = 14

// ReappearChance is the per-draw probability that a question past its
// cooldown window is offered again.
const ReappearChance = 0.05

// CooldownMap is the questionCooldowns.json shape: userID -> questionID ->
// unix milliseconds of the last time the question was answered or surfaced.
type CooldownMap map[string]map[string]int64

// Cooldowns is the per-user ledger deciding whether a question may be shown
// again.
type Cooldowns struct {
	docs *Documents
	now  func() time.Time
}

func NewCooldowns(docs *Documents) *Cooldowns {
	return &Cooldowns{docs: docs, now: time.Now}
}

func (c *Cooldowns) Load(ctx context.Context) (CooldownMap, error) {
	var m CooldownMap
	if err := c.docs.Read(ctx, DocCooldowns, &m, CooldownMap{}); err != nil {
		return nil, err
	}
	if m == nil {
		m = CooldownMap{}
	}
	return m, nil
}

// CanShow reports whether a question is visible to the user right now.
// Questions inside the window are always hidden; past it, each draw gives a
// small chance of reappearance.
func CanShow(user map[string]int64, questionID string, now time.Time, rnd *rand.Rand) bool {
	ts, ok := user[questionID]
	if !ok {
		return true
	}
	answeredAt := time.UnixMilli(ts)
	if now.Sub(answeredAt) < CooldownDays*24*time.Hour {
		return false
	}
	return rnd.Float64() < ReappearChance
}

// Mark records that questions were answered (or surfaced as already known)
// by the user, starting their cooldown window.
func (c *Cooldowns) Mark(ctx context.Context, userID string, questionIDs ...string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	m, err := c.Load(ctx)
	if err != nil {
		return err
	}
	user := m[userID]
	if user == nil {
		user = make(map[string]int64)
		m[userID] = user
	}
	ts := c.now().UnixMilli()
	for _, id := range questionIDs {
		user[id] = ts
	}
	return c.docs.Write(ctx, DocCooldowns, m)
}

// MarkAsync persists cooldown seeds without blocking the caller. Selection
// must not fail because the ledger write did; a lost seed only means the
// question can surface once more.
func (c *Cooldowns) MarkAsync(userID string, questionIDs ...string) {
	if len(questionIDs) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Mark(ctx, userID, questionIDs...); err != nil {
			log.Printf("[cooldown] seed write for user %s failed: %v", userID, err)
		}
	}()
}

// RemoveUser drops the user's ledger entries entirely.
func (c *Cooldowns) RemoveUser(ctx context.Context, userID string) error {
	m, err := c.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := m[userID]; !ok {
		return nil
	}
	delete(m, userID)
	return c.docs.Write(ctx, DocCooldowns, m)
}
