package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var nonDigitRe = regexp.MustCompile(`\D+`)

// DigitsOnly strips everything but digits (phone numbers, bank accounts).
func DigitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// NormalizeQuestion fills defaults and enforces per-type field rules. It is
// applied on every read and write so partially-formed admin payloads and
// legacy documents all converge to one shape.
func NormalizeQuestion(q Question, now time.Time) Question {
	if q.ID == "" {
		q.ID = NewID("q")
	}

	switch q.Type {
	case FreeText, QCM, Dropdown, Checkbox, Slider, Photo:
	default:
		q.Type = FreeText
	}

	hasChoices := q.Type == QCM || q.Type == Dropdown || q.Type == Checkbox

	if q.Type == Checkbox {
		switch strings.ToUpper(strings.TrimSpace(q.CheckboxMode)) {
		case CheckboxSingle, "UNIQUE":
			q.CheckboxMode = CheckboxSingle
		default:
			q.CheckboxMode = CheckboxMulti
		}
	} else {
		q.CheckboxMode = ""
	}

	if q.Type == Slider {
		lo, hi := 0, 10
		if q.SliderMin != nil {
			lo = *q.SliderMin
		}
		if q.SliderMax != nil {
			hi = *q.SliderMax
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		q.SliderMin, q.SliderMax = &lo, &hi
	} else {
		q.SliderMin, q.SliderMax = nil, nil
	}

	if q.Type != FreeText {
		q.DigitsOnly = false
	}

	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		q.Title = "Sans titre"
	}
	if q.Importance != ImportanceCaptcha {
		q.Importance = ImportanceSensible
	}

	// Priority is a standalone-question feature.
	if q.QuestionnaireID() != "" {
		q.Priority = false
		q.PriorityUntil = ""
	} else if q.Questionnaire != nil {
		q.Questionnaire = nil
	}

	if hasChoices {
		if q.Choices == nil {
			q.Choices = []Choice{}
		}
		for i := range q.Choices {
			if q.Choices[i].ID == "" {
				q.Choices[i].ID = "c_" + strconv.Itoa(i+1)
			}
		}
	} else {
		q.Choices = []Choice{}
	}

	if q.CreatedAt == "" {
		q.CreatedAt = NowISO(now)
	}
	if q.UpdatedAt == "" {
		q.UpdatedAt = NowISO(now)
	}
	return q
}

// NormalizeQuestionnaire fills defaults; ordering/membership reconciliation
// happens in the catalog, where the question list is in hand.
func NormalizeQuestionnaire(qn Questionnaire, now time.Time) Questionnaire {
	if qn.ID == "" {
		qn.ID = NewID("qn")
	}
	qn.Name = strings.TrimSpace(qn.Name)
	if qn.Name == "" {
		qn.Name = "Sans nom"
	}
	if qn.Reward < 0 {
		qn.Reward = 0
	}
	if qn.QuestionIDs == nil {
		qn.QuestionIDs = []string{}
	}
	if qn.QuestionOrder == nil {
		// Legacy documents carried order in questionIds.
		qn.QuestionOrder = append([]string{}, qn.QuestionIDs...)
	}
	if qn.CreatedAt == "" {
		qn.CreatedAt = NowISO(now)
	}
	if qn.UpdatedAt == "" {
		qn.UpdatedAt = NowISO(now)
	}
	return qn
}

// NormalizeTag fills defaults for a persisted tag.
func NormalizeTag(t Tag, now time.Time) Tag {
	if t.ID == "" {
		t.ID = NewID("t")
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		t.Name = "Sans nom"
	}
	if t.CreatedAt == "" {
		t.CreatedAt = NowISO(now)
	}
	return t
}

// NormalizeUser fills defaults and canonicalizes digit-only fields.
func NormalizeUser(u User, now time.Time) User {
	if u.ID == "" {
		u.ID = NewID("u")
	}
	u.Prenom = strings.TrimSpace(u.Prenom)
	u.Nom = strings.TrimSpace(u.Nom)
	u.FullName = strings.TrimSpace(u.FullName)
	if u.FullName == "" {
		u.FullName = strings.TrimSpace(u.Prenom + " " + u.Nom)
	}
	if u.FullName == "" {
		u.FullName = "Utilisateur"
	}
	u.CompteBancaire = DigitsOnly(u.CompteBancaire)
	u.Telephone = DigitsOnly(u.Telephone)
	u.NumeroCitoyen = DigitsOnly(u.NumeroCitoyen)
	if u.Retrait.Status == "" {
		u.Retrait = Retrait{Status: RetraitIdle}
	}
	if u.SensibleAnswersTagged == nil {
		u.SensibleAnswersTagged = []TaggedAnswer{}
	}
	if u.SensibleAnswersUntagged == nil {
		u.SensibleAnswersUntagged = []UntaggedAnswer{}
	}
	if u.CreatedAt == "" {
		u.CreatedAt = NowISO(now)
	}
	u.UpdatedAt = NowISO(now)
	return u
}
