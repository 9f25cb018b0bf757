package app

import (
	"context"
	"time"

	"github.com/yaroph/connect/internal/domain"
)

// Sensible routing targets.
const (
	SensibleTargetProfile  = "profile"
	SensibleTargetTagged   = "tagged"
	SensibleTargetUntagged = "untagged"
	SensibleTargetCaptcha  = "captcha"
)

// SensibleInput is a profiling answer to route onto the user record.
type SensibleInput struct {
	UserID        string `json:"userId"`
	QuestionID    string `json:"questionId"`
	QuestionTitle string `json:"questionTitle"`
	Answer        string `json:"answer"`
	IsCaptcha     bool   `json:"isCaptcha"`
}

// Sensible routes SENSIBLE answers onto the user: variable.user tags write
// straight into profile fields, real tags into the tagged answer list, and
// tagless questions into the untagged list. CAPTCHA answers never touch the
// user record. Every accepted answer puts the question on cooldown.
type Sensible struct {
	catalog   *Catalog
	users     *Users
	images    *Images
	cooldowns *Cooldowns
	now       func() time.Time
}

func NewSensible(catalog *Catalog, users *Users, images *Images, cooldowns *Cooldowns) *Sensible {
	return &Sensible{catalog: catalog, users: users, images: images, cooldowns: cooldowns, now: time.Now}
}

// Record stores the answer and returns which target it was routed to.
func (s *Sensible) Record(ctx context.Context, in SensibleInput) (string, domain.User, error) {
	if in.IsCaptcha {
		// CAPTCHA answers live only in the response log; here we just make
		// sure the question stops coming up.
		user, err := s.users.Get(ctx, in.UserID)
		if err != nil {
			return "", domain.User{}, err
		}
		if err := s.cooldowns.Mark(ctx, in.UserID, in.QuestionID); err != nil {
			return "", domain.User{}, err
		}
		return SensibleTargetCaptcha, user, nil
	}

	if IsInlineImage(in.Answer) {
		url, err := s.images.Store(ctx, in.Answer, domain.NewID("profimg"))
		if err != nil {
			return "", domain.User{}, err
		}
		in.Answer = url
	}

	data, err := s.catalog.LoadAll(ctx)
	if err != nil {
		return "", domain.User{}, err
	}

	tagID, title := "", in.QuestionTitle
	for _, q := range data.Questions {
		if q.ID == in.QuestionID {
			tagID = q.TagID
			if title == "" {
				title = q.Title
			}
			break
		}
	}

	tagName := ""
	if tagID != "" {
		for _, t := range data.Tags {
			if t.ID == tagID {
				tagName = t.Name
				break
			}
		}
	}

	target := SensibleTargetUntagged
	var field string
	if pt, ok := domain.PseudoTagByID(tagID); ok {
		target, field = SensibleTargetProfile, pt.Field
	} else if f, ok := domain.UserFieldForTagName(tagName); ok {
		target, field = SensibleTargetProfile, f
	} else if tagName != "" {
		target = SensibleTargetTagged
	}

	user, err := s.users.Update(ctx, in.UserID, func(u *domain.User) error {
		switch target {
		case SensibleTargetProfile:
			u.SetProfileField(field, in.Answer)
		case SensibleTargetTagged:
			for i := range u.SensibleAnswersTagged {
				if u.SensibleAnswersTagged[i].Tag == tagName {
					u.SensibleAnswersTagged[i].Answer = in.Answer
					return nil
				}
			}
			u.SensibleAnswersTagged = append(u.SensibleAnswersTagged, domain.TaggedAnswer{
				Tag:    tagName,
				Answer: in.Answer,
			})
		default:
			for i := range u.SensibleAnswersUntagged {
				if u.SensibleAnswersUntagged[i].QuestionID == in.QuestionID {
					u.SensibleAnswersUntagged[i].Answer = in.Answer
					u.SensibleAnswersUntagged[i].QuestionTitle = title
					return nil
				}
			}
			u.SensibleAnswersUntagged = append(u.SensibleAnswersUntagged, domain.UntaggedAnswer{
				QuestionID:    in.QuestionID,
				QuestionTitle: title,
				Answer:        in.Answer,
			})
		}
		return nil
	})
	if err != nil {
		return "", domain.User{}, err
	}
	if err := s.cooldowns.Mark(ctx, in.UserID, in.QuestionID); err != nil {
		return "", domain.User{}, err
	}
	return target, user, nil
}
