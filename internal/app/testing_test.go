package app

import (
	"math/rand"
	"time"

	"github.com/yaroph/connect/internal/infra/memory"
)

// fixedNow keeps quota keys stable across a test run.
var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local)

func newTestStack() *Services {
	s := NewServices(memory.NewStore(), nil, true, memory.NewImageStore(), time.Minute)
	setClock(s, fixedNow)
	return s
}

func setClock(s *Services, now time.Time) {
	clock := func() time.Time { return now }
	s.Catalog.now = clock
	s.Users.now = clock
	s.Cooldowns.now = clock
	s.Wallet.now = clock
	s.Responses.now = clock
	s.Sensible.now = clock
	s.Selector.now = clock
	s.Validator.now = clock
}

func seededSelector(s *Services, seed int64) {
	s.Selector.newRand = func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
}
