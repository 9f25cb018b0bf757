package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yaroph/connect/internal/domain"
)

// Quota refusal reasons on earn/skip.
const (
	ReasonDailyLimit  = "DAILY_LIMIT"
	ReasonWeeklyLimit = "WEEKLY_LIMIT"
)

// Exhausted quota markers on random selection.
const (
	QuotaDaily  = "daily"
	QuotaWeekly = "weekly"
)

// AdminLedger is the argentadmin.json shape: queued withdrawal requests,
// the validated ones kept for audit, and the running total paid out.
type AdminLedger struct {
	Payments  []domain.Payment `json:"payments"`
	History   []domain.Payment `json:"history"`
	TotalPaid float64          `json:"totalPaid"`
}

// UnmarshalJSON also accepts the legacy document shape, a bare array of
// queued payments. Such a ledger is upgraded to the object shape on the
// next write.
func (l *AdminLedger) UnmarshalJSON(data []byte) error {
	type ledger AdminLedger
	var obj ledger
	if err := json.Unmarshal(data, &obj); err == nil {
		*l = AdminLedger(obj)
		return nil
	}
	var payments []domain.Payment
	if err := json.Unmarshal(data, &payments); err != nil {
		return err
	}
	*l = AdminLedger{Payments: payments}
	return nil
}

// EarnResult reports the outcome of a random-question earn or skip. OK is
// false only on a quota refusal; Count is today's consumed quota after the
// call.
type EarnResult struct {
	OK              bool    `json:"ok"`
	Credited        bool    `json:"credited"`
	Reason          string  `json:"reason,omitempty"`
	Earned          float64 `json:"earned"`
	Pending         float64 `json:"pending"`
	Count           int     `json:"count"`
	DailyRemaining  int     `json:"dailyRemaining"`
	WeeklyRemaining int     `json:"weeklyRemaining"`
}

// Wallet owns the cagnotte document (pending balances and quota counters)
// and the admin payment ledger.
type Wallet struct {
	docs     *Documents
	users    *Users
	settings *SettingsService
	events   *ActivityHub
	now      func() time.Time
}

func NewWallet(docs *Documents, users *Users, settings *SettingsService, events *ActivityHub) *Wallet {
	return &Wallet{
		docs:     docs,
		users:    users,
		settings: settings,
		events:   events,
		now:      time.Now,
	}
}

func (w *Wallet) cagnotte(ctx context.Context) (map[string]*domain.CagnotteEntry, error) {
	var m map[string]*domain.CagnotteEntry
	if err := w.docs.Read(ctx, DocCagnotte, &m, map[string]*domain.CagnotteEntry{}); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]*domain.CagnotteEntry{}
	}
	return m, nil
}

func entryFor(m map[string]*domain.CagnotteEntry, userID string) *domain.CagnotteEntry {
	e, ok := m[userID]
	if !ok || e == nil {
		e = &domain.CagnotteEntry{}
		m[userID] = e
	}
	if e.RandomByDay == nil {
		e.RandomByDay = map[string]int{}
	}
	if e.RandomByWeek == nil {
		e.RandomByWeek = map[string]int{}
	}
	return e
}

// Pending returns the user's uncommitted balance.
func (w *Wallet) Pending(ctx context.Context, userID string) (float64, error) {
	m, err := w.cagnotte(ctx)
	if err != nil {
		return 0, err
	}
	if e, ok := m[userID]; ok && e != nil {
		return e.Pending, nil
	}
	return 0, nil
}

// Counts returns today's and this week's random-question counters.
func (w *Wallet) Counts(ctx context.Context, userID string) (daily, weekly int, err error) {
	m, err := w.cagnotte(ctx)
	if err != nil {
		return 0, 0, err
	}
	e, ok := m[userID]
	if !ok || e == nil {
		return 0, 0, nil
	}
	now := w.now()
	return e.RandomByDay[domain.DayKey(now)], e.RandomByWeek[domain.WeekKey(now)], nil
}

// CreditRandom consumes one unit of daily and weekly quota and credits the
// per-question reward. When a limit is already reached nothing changes and
// the refusal reason is reported.
func (w *Wallet) CreditRandom(ctx context.Context, userID string) (EarnResult, error) {
	return w.consumeRandom(ctx, userID, true)
}

// SkipRandom consumes quota without crediting, so skipping a question costs
// the same as answering it.
func (w *Wallet) SkipRandom(ctx context.Context, userID string) (EarnResult, error) {
	return w.consumeRandom(ctx, userID, false)
}

func (w *Wallet) consumeRandom(ctx context.Context, userID string, credit bool) (EarnResult, error) {
	if _, err := w.users.Get(ctx, userID); err != nil {
		return EarnResult{}, err
	}
	settings, err := w.settings.Get(ctx)
	if err != nil {
		return EarnResult{}, err
	}
	m, err := w.cagnotte(ctx)
	if err != nil {
		return EarnResult{}, err
	}
	e := entryFor(m, userID)
	now := w.now()
	dayKey, weekKey := domain.DayKey(now), domain.WeekKey(now)

	res := EarnResult{OK: true, Pending: e.Pending}
	if e.RandomByDay[dayKey] >= settings.RandomQuestionsPerDay {
		res.Reason = ReasonDailyLimit
		res.Count = e.RandomByDay[dayKey]
	} else if e.RandomByWeek[weekKey] >= settings.RandomQuestionsPerWeek {
		res.Reason = ReasonWeeklyLimit
		res.Count = e.RandomByWeek[weekKey]
	}
	if res.Reason != "" {
		res.OK = false
		res.DailyRemaining = remaining(settings.RandomQuestionsPerDay, e.RandomByDay[dayKey])
		res.WeeklyRemaining = remaining(settings.RandomQuestionsPerWeek, e.RandomByWeek[weekKey])
		return res, nil
	}

	e.RandomByDay[dayKey]++
	e.RandomByWeek[weekKey]++
	if credit {
		e.Pending += settings.EarningsPerRandomQuestion
		res.Credited = true
		res.Earned = settings.EarningsPerRandomQuestion
	}
	if err := w.docs.Write(ctx, DocCagnotte, m); err != nil {
		return EarnResult{}, err
	}
	res.Pending = e.Pending
	res.Count = e.RandomByDay[dayKey]
	res.DailyRemaining = remaining(settings.RandomQuestionsPerDay, e.RandomByDay[dayKey])
	res.WeeklyRemaining = remaining(settings.RandomQuestionsPerWeek, e.RandomByWeek[weekKey])
	if res.Credited {
		w.events.Publish(ActivityEvent{
			Type:   EventRewardCredited,
			UserID: userID,
			Amount: res.Earned,
			At:     domain.NowISO(now),
		})
	}
	return res, nil
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}

// CreditQuestionnaire adds a questionnaire reward to the pending balance and
// returns the new balance. Quotas do not apply to questionnaire rewards.
func (w *Wallet) CreditQuestionnaire(ctx context.Context, userID string, amount float64) (float64, error) {
	m, err := w.cagnotte(ctx)
	if err != nil {
		return 0, err
	}
	e := entryFor(m, userID)
	e.Pending += amount
	if err := w.docs.Write(ctx, DocCagnotte, m); err != nil {
		return 0, err
	}
	return e.Pending, nil
}

func (w *Wallet) ledger(ctx context.Context) (AdminLedger, error) {
	var l AdminLedger
	if err := w.docs.Read(ctx, DocAdminMoney, &l, AdminLedger{Payments: []domain.Payment{}}); err != nil {
		return AdminLedger{}, err
	}
	if l.Payments == nil {
		l.Payments = []domain.Payment{}
	}
	return l, nil
}

// Ledger exposes the payment queue and total paid for the admin screens.
func (w *Wallet) Ledger(ctx context.Context) (AdminLedger, error) {
	return w.ledger(ctx)
}

// RequestWithdrawal moves the user's whole pending balance into a queued
// payment carrying a snapshot of their payout details.
func (w *Wallet) RequestWithdrawal(ctx context.Context, userID string) (domain.Retrait, domain.Payment, error) {
	user, err := w.users.Get(ctx, userID)
	if err != nil {
		return domain.Retrait{}, domain.Payment{}, err
	}
	if user.Retrait.Status == domain.RetraitPending {
		return domain.Retrait{}, domain.Payment{}, domain.ErrWithdrawalPending
	}
	settings, err := w.settings.Get(ctx)
	if err != nil {
		return domain.Retrait{}, domain.Payment{}, err
	}
	m, err := w.cagnotte(ctx)
	if err != nil {
		return domain.Retrait{}, domain.Payment{}, err
	}
	e := entryFor(m, userID)
	if e.Pending < settings.MinimumWithdrawalAmount {
		return domain.Retrait{}, domain.Payment{}, domain.ErrBelowMinimum
	}
	ledger, err := w.ledger(ctx)
	if err != nil {
		return domain.Retrait{}, domain.Payment{}, err
	}
	now := w.now()
	monthKey := now.Format("2006-01")
	monthCount := 0
	for _, list := range [][]domain.Payment{ledger.Payments, ledger.History} {
		for _, p := range list {
			if p.UserID == userID && len(p.CreatedAt) >= len(monthKey) && p.CreatedAt[:len(monthKey)] == monthKey {
				monthCount++
			}
		}
	}
	if monthCount >= settings.MaxWithdrawalsPerMonth {
		return domain.Retrait{}, domain.Payment{}, domain.ErrWithdrawalQuota
	}

	payment := domain.Payment{
		ID:             domain.NewID("pay"),
		UserID:         userID,
		FullName:       user.FullName,
		CompteBancaire: user.CompteBancaire,
		Telephone:      user.Telephone,
		Amount:         e.Pending,
		CreatedAt:      domain.NowISO(now),
	}
	ledger.Payments = append(ledger.Payments, payment)
	e.Pending = 0
	if err := w.docs.Write(ctx, DocAdminMoney, ledger); err != nil {
		return domain.Retrait{}, domain.Payment{}, err
	}
	if err := w.docs.Write(ctx, DocCagnotte, m); err != nil {
		return domain.Retrait{}, domain.Payment{}, err
	}

	retrait := domain.Retrait{
		Status:      domain.RetraitPending,
		Amount:      payment.Amount,
		RequestedAt: payment.CreatedAt,
	}
	if _, err := w.users.Update(ctx, userID, func(u *domain.User) error {
		u.Retrait = retrait
		return nil
	}); err != nil {
		return domain.Retrait{}, domain.Payment{}, err
	}
	w.events.Publish(ActivityEvent{
		Type:      EventWithdrawalRequested,
		UserID:    userID,
		UserName:  user.FullName,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		At:        payment.CreatedAt,
	})
	return retrait, payment, nil
}

func (w *Wallet) takePayment(ctx context.Context, paymentID string) (domain.Payment, AdminLedger, error) {
	ledger, err := w.ledger(ctx)
	if err != nil {
		return domain.Payment{}, AdminLedger{}, err
	}
	for i, p := range ledger.Payments {
		if p.ID == paymentID {
			ledger.Payments = append(ledger.Payments[:i], ledger.Payments[i+1:]...)
			return p, ledger, nil
		}
	}
	return domain.Payment{}, AdminLedger{}, domain.ErrPaymentNotFound
}

// ValidateWithdrawal confirms a queued payment: the amount becomes committed
// earnings on the user and the request disappears from the queue.
func (w *Wallet) ValidateWithdrawal(ctx context.Context, paymentID string) (domain.User, domain.Payment, error) {
	payment, ledger, err := w.takePayment(ctx, paymentID)
	if err != nil {
		return domain.User{}, domain.Payment{}, err
	}
	ledger.History = append(ledger.History, payment)
	ledger.TotalPaid += payment.Amount
	if err := w.docs.Write(ctx, DocAdminMoney, ledger); err != nil {
		return domain.User{}, domain.Payment{}, err
	}
	user, err := w.users.Update(ctx, payment.UserID, func(u *domain.User) error {
		u.GagneSurBNI += payment.Amount
		u.Retrait = domain.Retrait{Status: domain.RetraitIdle}
		return nil
	})
	if err != nil {
		return domain.User{}, domain.Payment{}, err
	}
	w.events.Publish(ActivityEvent{
		Type:      EventWithdrawalValidated,
		UserID:    payment.UserID,
		UserName:  payment.FullName,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		At:        domain.NowISO(w.now()),
	})
	return user, payment, nil
}

// CancelWithdrawal rejects a queued payment and puts the amount back into
// the user's pending balance.
func (w *Wallet) CancelWithdrawal(ctx context.Context, paymentID string) (domain.User, float64, error) {
	payment, ledger, err := w.takePayment(ctx, paymentID)
	if err != nil {
		return domain.User{}, 0, err
	}
	if err := w.docs.Write(ctx, DocAdminMoney, ledger); err != nil {
		return domain.User{}, 0, err
	}
	m, err := w.cagnotte(ctx)
	if err != nil {
		return domain.User{}, 0, err
	}
	e := entryFor(m, payment.UserID)
	e.Pending += payment.Amount
	if err := w.docs.Write(ctx, DocCagnotte, m); err != nil {
		return domain.User{}, 0, err
	}
	user, err := w.users.Update(ctx, payment.UserID, func(u *domain.User) error {
		u.Retrait = domain.Retrait{Status: domain.RetraitIdle}
		return nil
	})
	if err != nil {
		return domain.User{}, 0, err
	}
	w.events.Publish(ActivityEvent{
		Type:      EventWithdrawalCancelled,
		UserID:    payment.UserID,
		UserName:  payment.FullName,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		At:        domain.NowISO(w.now()),
	})
	return user, e.Pending, nil
}

// RemoveUser drops the user's balance, counters and queued payments.
func (w *Wallet) RemoveUser(ctx context.Context, userID string) error {
	m, err := w.cagnotte(ctx)
	if err != nil {
		return err
	}
	if _, ok := m[userID]; ok {
		delete(m, userID)
		if err := w.docs.Write(ctx, DocCagnotte, m); err != nil {
			return err
		}
	}
	ledger, err := w.ledger(ctx)
	if err != nil {
		return err
	}
	removed := false
	drop := func(list []domain.Payment) []domain.Payment {
		kept := list[:0]
		for _, p := range list {
			if p.UserID == userID {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		return kept
	}
	ledger.Payments = drop(ledger.Payments)
	ledger.History = drop(ledger.History)
	if removed {
		return w.docs.Write(ctx, DocAdminMoney, ledger)
	}
	return nil
}
