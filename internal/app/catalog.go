package app

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yaroph/connect/internal/domain"
)

const catalogCacheKey = "catalog"

// CatalogData is the admin-authored content: tags, questions and
// questionnaires, loaded and saved as one unit.
type CatalogData struct {
	Tags           []domain.Tag           `json:"tags"`
	Questions      []domain.Question      `json:"questions"`
	Questionnaires []domain.Questionnaire `json:"questionnaires"`
}

// Catalog owns the three catalog documents. Every read normalizes and
// reconciles them so the rest of the code never sees a half-migrated
// document.
type Catalog struct {
	docs     *Documents
	images   *Images
	cache    *Cache
	cacheTTL time.Duration
	group    singleflight.Group
	now      func() time.Time
}

func NewCatalog(docs *Documents, images *Images, cache *Cache, ttl time.Duration) *Catalog {
	return &Catalog{
		docs:     docs,
		images:   images,
		cache:    cache,
		cacheTTL: ttl,
		now:      time.Now,
	}
}

// LoadAll returns the normalized catalog, with the variable.user pseudo-tags
// merged into the tag list. Concurrent cache misses collapse into a single
// load.
func (c *Catalog) LoadAll(ctx context.Context) (CatalogData, error) {
	if v, ok := c.cache.Get(catalogCacheKey); ok {
		return v.(CatalogData), nil
	}
	v, err, _ := c.group.Do(catalogCacheKey, func() (any, error) {
		data, err := c.loadAll(ctx)
		if err != nil {
			return CatalogData{}, err
		}
		c.cache.Set(catalogCacheKey, data, c.cacheTTL)
		return data, nil
	})
	if err != nil {
		return CatalogData{}, err
	}
	return v.(CatalogData), nil
}

func (c *Catalog) loadAll(ctx context.Context) (CatalogData, error) {
	var rawTags []domain.Tag
	var rawQuestions []domain.Question
	var rawQuestionnaires []domain.Questionnaire
	if err := c.docs.Read(ctx, DocTags, &rawTags, []domain.Tag{}); err != nil {
		return CatalogData{}, err
	}
	if err := c.docs.Read(ctx, DocQuestions, &rawQuestions, []domain.Question{}); err != nil {
		return CatalogData{}, err
	}
	if err := c.docs.Read(ctx, DocQuestionnaires, &rawQuestionnaires, []domain.Questionnaire{}); err != nil {
		return CatalogData{}, err
	}

	now := c.now()
	data := CatalogData{
		Tags:           make([]domain.Tag, 0, len(rawTags)),
		Questions:      make([]domain.Question, 0, len(rawQuestions)),
		Questionnaires: make([]domain.Questionnaire, 0, len(rawQuestionnaires)),
	}
	for _, t := range rawTags {
		if domain.IsPseudoTagID(t.ID) || domain.IsPseudoTagName(t.Name) {
			continue
		}
		data.Tags = append(data.Tags, domain.NormalizeTag(t, now))
	}
	for _, q := range rawQuestions {
		data.Questions = append(data.Questions, domain.NormalizeQuestion(q, now))
	}
	for _, qn := range rawQuestionnaires {
		data.Questionnaires = append(data.Questionnaires, domain.NormalizeQuestionnaire(qn, now))
	}

	changed := reconcile(&data)
	changed = changed || len(data.Tags) != len(rawTags) ||
		len(data.Questions) != len(rawQuestions) ||
		len(data.Questionnaires) != len(rawQuestionnaires)

	// Repair drifted documents in place, but only where a read observes the
	// write it just made.
	if changed && c.docs.StrongConsistency() {
		if err := c.writeAll(ctx, data); err != nil {
			return CatalogData{}, err
		}
	}

	data.Tags = mergePseudoTags(data.Tags)
	return data, nil
}

// SaveAll replaces the whole catalog. Pseudo-tags are stripped back out,
// inline base64 images are moved to the image store, and membership and
// ordering are recomputed from the questions before anything is written.
func (c *Catalog) SaveAll(ctx context.Context, in CatalogData) (CatalogData, error) {
	now := c.now()
	data := CatalogData{
		Tags:           make([]domain.Tag, 0, len(in.Tags)),
		Questions:      make([]domain.Question, 0, len(in.Questions)),
		Questionnaires: make([]domain.Questionnaire, 0, len(in.Questionnaires)),
	}
	for _, t := range in.Tags {
		if domain.IsPseudoTagID(t.ID) || domain.IsPseudoTagName(t.Name) {
			continue
		}
		data.Tags = append(data.Tags, domain.NormalizeTag(t, now))
	}
	for _, q := range in.Questions {
		q = domain.NormalizeQuestion(q, now)
		if IsInlineImage(q.ImageURL) {
			url, err := c.images.Store(ctx, q.ImageURL, q.ID)
			if err != nil {
				return CatalogData{}, fmt.Errorf("externalize image for question %s: %w", q.ID, err)
			}
			q.ImageURL = url
		}
		data.Questions = append(data.Questions, q)
	}
	for _, qn := range in.Questionnaires {
		data.Questionnaires = append(data.Questionnaires, domain.NormalizeQuestionnaire(qn, now))
	}

	reconcile(&data)
	if err := c.writeAll(ctx, data); err != nil {
		return CatalogData{}, err
	}
	c.Invalidate()
	data.Tags = mergePseudoTags(data.Tags)
	return data, nil
}

func (c *Catalog) writeAll(ctx context.Context, data CatalogData) error {
	if err := c.docs.Write(ctx, DocTags, data.Tags); err != nil {
		return err
	}
	if err := c.docs.Write(ctx, DocQuestions, data.Questions); err != nil {
		return err
	}
	return c.docs.Write(ctx, DocQuestionnaires, data.Questionnaires)
}

// Invalidate drops the cached catalog so the next read hits the store.
func (c *Catalog) Invalidate() {
	c.cache.Invalidate(catalogCacheKey)
}

// Seed writes the base tags and default settings when the store is empty,
// so a fresh deployment starts usable.
func (c *Catalog) Seed(ctx context.Context) error {
	var tags []domain.Tag
	if err := c.docs.Read(ctx, DocTags, &tags, []domain.Tag{}); err != nil {
		return err
	}
	if len(tags) == 0 {
		now := c.now()
		seed := []domain.Tag{
			{ID: "t_fun", Name: "Fun", CreatedAt: domain.NowISO(now)},
			{ID: "t_etat", Name: "État", CreatedAt: domain.NowISO(now)},
			{ID: "t_nouvel_an", Name: "Nouvel an", CreatedAt: domain.NowISO(now)},
		}
		if err := c.docs.Write(ctx, DocTags, seed); err != nil {
			return err
		}
	}
	var settings domain.Settings
	return c.docs.Read(ctx, DocSettings, &settings, domain.DefaultSettings())
}

// reconcile derives questionnaire membership and ordering from the questions
// and applies the publication rules that couple a question's active state to
// its questionnaire. Reports whether anything was altered.
func reconcile(data *CatalogData) bool {
	changed := false

	questionnairesByID := make(map[string]domain.Questionnaire, len(data.Questionnaires))
	for _, qn := range data.Questionnaires {
		questionnairesByID[qn.ID] = qn
	}

	for i := range data.Questions {
		q := &data.Questions[i]
		qnID := q.QuestionnaireID()
		if qnID == "" {
			continue
		}
		qn, ok := questionnairesByID[qnID]
		if !ok {
			// Orphaned link: return the question to the standalone pool.
			q.Questionnaire = nil
			q.ForcedInactiveByQuestionnaire = false
			changed = true
			continue
		}
		if qn.Unrelease {
			if q.Active {
				q.Active = false
				q.ForcedInactiveByQuestionnaire = true
				changed = true
			}
		} else if q.ForcedInactiveByQuestionnaire {
			q.Active = true
			q.ForcedInactiveByQuestionnaire = false
			changed = true
		}
	}

	for i := range data.Questionnaires {
		qn := &data.Questionnaires[i]

		members := make([]string, 0)
		memberSet := make(map[string]bool)
		for _, q := range data.Questions {
			if q.QuestionnaireID() == qn.ID {
				members = append(members, q.ID)
				memberSet[q.ID] = true
			}
		}

		// Keep whatever stored order is still valid, then append newcomers in
		// question-list order.
		order := make([]string, 0, len(members))
		seen := make(map[string]bool)
		for _, id := range qn.QuestionOrder {
			if memberSet[id] && !seen[id] {
				order = append(order, id)
				seen[id] = true
			}
		}
		for _, id := range members {
			if !seen[id] {
				order = append(order, id)
				seen[id] = true
			}
		}

		if !reflect.DeepEqual(qn.QuestionIDs, members) {
			qn.QuestionIDs = members
			changed = true
		}
		if !reflect.DeepEqual(qn.QuestionOrder, order) {
			qn.QuestionOrder = order
			changed = true
		}
	}

	return changed
}

// mergePseudoTags appends the virtual variable.user tags to the persisted
// ones for API consumers.
func mergePseudoTags(tags []domain.Tag) []domain.Tag {
	out := append([]domain.Tag{}, tags...)
	for _, pt := range domain.PseudoTags {
		out = append(out, domain.Tag{ID: pt.ID, Name: pt.Name})
	}
	return out
}
