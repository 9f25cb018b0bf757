package app

import "sync"

// ActivityEvent is one entry on the admin live feed.
type ActivityEvent struct {
	Type            string  `json:"type"`
	UserID          string  `json:"userId,omitempty"`
	UserName        string  `json:"userName,omitempty"`
	QuestionID      string  `json:"questionId,omitempty"`
	QuestionnaireID string  `json:"questionnaireId,omitempty"`
	PaymentID       string  `json:"paymentId,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
	At              string  `json:"at"`
}

// Feed event types.
const (
	EventAnswerRecorded         = "answer_recorded"
	EventQuestionnaireCompleted = "questionnaire_completed"
	EventRewardCredited         = "reward_credited"
	EventWithdrawalRequested    = "withdrawal_requested"
	EventWithdrawalValidated    = "withdrawal_validated"
	EventWithdrawalCancelled    = "withdrawal_cancelled"
)

// ActivityHub fans activity events out to live admin subscribers. A slow
// subscriber drops events rather than blocking publishers.
type ActivityHub struct {
	mu          sync.Mutex
	subscribers map[chan ActivityEvent]struct{}
}

func NewActivityHub() *ActivityHub {
	return &ActivityHub{subscribers: make(map[chan ActivityEvent]struct{})}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away.
func (h *ActivityHub) Subscribe() (<-chan ActivityEvent, func()) {
	ch := make(chan ActivityEvent, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking. A nil hub
// is a no-op so services can run without a feed wired.
func (h *ActivityHub) Publish(ev ActivityEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
