package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported answer widgets.
type QuestionType string

const (
	FreeText QuestionType = "FREE_TEXT"
	QCM      QuestionType = "QCM"
	Dropdown QuestionType = "DROPDOWN"
	Checkbox QuestionType = "CHECKBOX"
	Slider   QuestionType = "SLIDER"
	Photo    QuestionType = "PHOTO"
)

// Importance separates profiling questions from captcha-style checks.
const (
	ImportanceSensible = "SENSIBLE"
	ImportanceCaptcha  = "CAPTCHA"
)

// Checkbox selection modes.
const (
	CheckboxSingle = "SINGLE"
	CheckboxMulti  = "MULTI"
)

// Choice is one selectable option of a QCM/DROPDOWN/CHECKBOX question.
type Choice struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is an admin-authored question. Questionnaire is nil for standalone
// (random-pool) questions; Priority only ever applies to those.
type Question struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Type          QuestionType `json:"type"`
	CorrectAnswer string       `json:"correctAnswer"`
	DigitsOnly    bool         `json:"digitsOnly"`
	ImageURL      string       `json:"imageUrl"`
	Importance    string       `json:"importance"`
	TagID         string       `json:"tagId"`

	Priority      bool   `json:"priority"`
	PriorityUntil string `json:"priorityUntil"`

	Active        bool    `json:"active"`
	Questionnaire *string `json:"questionnaire"`
	// Remembers that Active was forced off because the linked questionnaire
	// is unpublished or currently visible to end users.
	ForcedInactiveByQuestionnaire bool `json:"forcedInactiveByQuestionnaire"`

	CheckboxMode string `json:"checkboxMode,omitempty"`
	SliderMin    *int   `json:"sliderMin"`
	SliderMax    *int   `json:"sliderMax"`

	Choices []Choice `json:"choices"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// QuestionnaireID returns the linked questionnaire id or "".
func (q Question) QuestionnaireID() string {
	if q.Questionnaire == nil {
		return ""
	}
	return *q.Questionnaire
}

// Questionnaire groups questions behind a single reward.
// QuestionOrder is the source of truth for ordering; QuestionIDs is derived
// membership kept for client compatibility.
type Questionnaire struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Reward        float64  `json:"reward"`
	Visible       bool     `json:"visible"`
	Unrelease     bool     `json:"unrelease"`
	EndDate       string   `json:"endDate"`
	IsPrivate     bool     `json:"isPrivate"`
	Code          string   `json:"code"`
	QuestionIDs   []string `json:"questionIds"`
	QuestionOrder []string `json:"questionorder"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// ActiveNow reports whether end users can currently see the questionnaire.
func (qn Questionnaire) ActiveNow(now time.Time) bool {
	if !qn.Visible || qn.Unrelease {
		return false
	}
	if qn.EndDate == "" {
		return true
	}
	end, ok := ParseDateOnly(qn.EndDate)
	if !ok {
		return true
	}
	return !now.After(EndOfDay(end))
}

// Tag labels questions; answering one tagged question retires the whole tag
// from the random pool for that user.
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// Retrait tracks the state of a user's withdrawal button.
type Retrait struct {
	Status      string  `json:"status"` // IDLE or PENDING
	Amount      float64 `json:"amount"`
	RequestedAt string  `json:"requestedAt"`
}

const (
	RetraitIdle    = "IDLE"
	RetraitPending = "PENDING"
)

// TaggedAnswer is a sensible answer stored on the user, keyed by tag.
type TaggedAnswer struct {
	Tag    string `json:"tag"`
	Answer string `json:"answer"`
}

// UntaggedAnswer is a sensible answer with no tag to key on.
type UntaggedAnswer struct {
	QuestionID    string `json:"questionId"`
	QuestionTitle string `json:"questionTitle"`
	Answer        string `json:"answer"`
}

// User is an end-user account, including the profile fields that
// variable.user pseudo-tags write into.
type User struct {
	ID             string `json:"id"`
	Prenom         string `json:"prenom"`
	Nom            string `json:"nom"`
	FullName       string `json:"fullName"`
	CompteBancaire string `json:"compteBancaire"`
	DateNaissance  string `json:"dateNaissance"`
	Telephone      string `json:"telephone"`
	MotDePasse     string `json:"motDePasse"`
	PhotoProfil    string `json:"photoProfil"`
	NumeroCitoyen  string `json:"numeroCitoyen"`

	Sexe               string `json:"sexe"`
	CouleurPeau        string `json:"couleurPeau"`
	CouleurCheveux     string `json:"couleurCheveux"`
	LongueurCheveux    string `json:"longueurCheveux"`
	StyleVestimentaire string `json:"styleVestimentaire"`
	Metier             string `json:"metier"`

	GagneSurBNI float64 `json:"gagneSurBNI"`
	IsAdmin     bool    `json:"is_admin"`
	Token       string  `json:"token"`
	Retrait     Retrait `json:"retrait"`

	SensibleAnswersTagged   []TaggedAnswer   `json:"sensibleAnswersTagged"`
	SensibleAnswersUntagged []UntaggedAnswer `json:"sensibleAnswersUntagged"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Answer is one recorded response. QuestionnaireID is nil for random-mode
// answers; the (UserID, QuestionID, QuestionnaireID-or-nil) triple is unique.
type Answer struct {
	ID              string  `json:"id"`
	UserID          string  `json:"userId"`
	UserName        string  `json:"userName"`
	QuestionnaireID *string `json:"questionnaireId"`
	QuestionID      string  `json:"questionId"`
	QuestionTitle   string  `json:"questionTitle"`
	Answer          string  `json:"answer"`
	Correct         bool    `json:"correct"`
	IsCaptcha       bool    `json:"isCaptcha"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

// Matches reports whether the entry is for the given identity triple.
// An empty questionnaireID only ever matches a random-mode answer.
func (a Answer) Matches(userID, questionID, questionnaireID string) bool {
	if a.UserID != userID || a.QuestionID != questionID {
		return false
	}
	if questionnaireID == "" {
		return a.QuestionnaireID == nil || *a.QuestionnaireID == ""
	}
	return a.QuestionnaireID != nil && *a.QuestionnaireID == questionnaireID
}

// Completion marks a questionnaire as finished by a user, at most once.
type Completion struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	UserName        string `json:"userName,omitempty"`
	QuestionnaireID string `json:"questionnaireId"`
	CompletedAt     string `json:"completedAt"`
	// Set when the completion was recorded through the resync escape hatch
	// instead of the coverage-checked validation.
	AutoMarked bool `json:"autoMarked,omitempty"`
}

// ResponseLog is the shape of the reponses.json document.
type ResponseLog struct {
	Answers     []Answer     `json:"answers"`
	Completions []Completion `json:"completions"`
}

// CagnotteEntry is a user's pending balance plus quota counters.
type CagnotteEntry struct {
	Pending      float64        `json:"pending"`
	RandomByDay  map[string]int `json:"randomByDay"`
	RandomByWeek map[string]int `json:"randomByWeek"`
}

// Payment is a withdrawal request queued for admin review, carrying a
// snapshot of the payout details at request time.
type Payment struct {
	ID             string  `json:"id"`
	UserID         string  `json:"userId"`
	FullName       string  `json:"fullName"`
	CompteBancaire string  `json:"compteBancaire"`
	Telephone      string  `json:"telephone"`
	Amount         float64 `json:"amount"`
	CreatedAt      string  `json:"createdAt"`
}

// Settings are the admin-tunable platform parameters. Amounts are dollars.
type Settings struct {
	RandomQuestionsPerDay     int     `json:"randomQuestionsPerDay"`
	RandomQuestionsPerWeek    int     `json:"randomQuestionsPerWeek"`
	MinimumWithdrawalAmount   float64 `json:"minimumWithdrawalAmount"`
	EarningsPerRandomQuestion float64 `json:"earningsPerRandomQuestion"`
	EarningsPerQuestionnaire  float64 `json:"earningsPerQuestionnaire"`
	MaxWithdrawalsPerMonth    int     `json:"maxWithdrawalsPerMonth"`
}

// DefaultSettings returns the values used when settings.json is absent.
func DefaultSettings() Settings {
	return Settings{
		RandomQuestionsPerDay:     10,
		RandomQuestionsPerWeek:    50,
		MinimumWithdrawalAmount:   50,
		EarningsPerRandomQuestion: 0.10,
		EarningsPerQuestionnaire:  1.00,
		MaxWithdrawalsPerMonth:    5,
	}
}

// NewID returns a prefixed unique id, e.g. "ans_6f1c...".
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NowISO formats a timestamp the way every document stores dates.
func NowISO(now time.Time) string {
	return now.UTC().Format(time.RFC3339Nano)
}
