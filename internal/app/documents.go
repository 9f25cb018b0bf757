package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/yaroph/connect/internal/domain"
)

// Document keys. Names match the files the platform has always persisted so
// existing data loads unchanged regardless of backend.
const (
	DocQuestions      = "question.json"
	DocQuestionnaires = "questionnaire.json"
	DocTags           = "tag.json"
	DocResponses      = "reponses.json"
	DocUsers          = "utilisateur.json"
	DocCagnotte       = "cagnotte.json"
	DocAdminMoney     = "argentadmin.json"
	DocCooldowns      = "questionCooldowns.json"
	DocSettings       = "settings.json"
)

// DocumentStore abstracts key/value JSON persistence. Implementations live
// under internal/infra; Get returns domain.ErrKeyNotFound for absent keys.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Documents layers document semantics over a DocumentStore: JSON decoding
// with reset-to-fallback for absent or corrupt values, per-key write
// serialization, and a one-shot permanent failover to a secondary store when
// the primary degrades.
type Documents struct {
	primary  DocumentStore
	fallback DocumentStore
	strong   bool

	degradedMu sync.Mutex
	degraded   bool

	locksMu  sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewDocuments wires a primary store with an optional failover store.
// strong marks backends with read-after-write consistency (filesystem,
// memory); read-repair writes are only safe there.
func NewDocuments(primary, fallback DocumentStore, strong bool) *Documents {
	return &Documents{
		primary:  primary,
		fallback: fallback,
		strong:   strong,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// StrongConsistency reports whether reads observe the latest write, which
// gates read-repair rewrites of normalized documents.
func (d *Documents) StrongConsistency() bool {
	return d.strong
}

func (d *Documents) store() DocumentStore {
	d.degradedMu.Lock()
	defer d.degradedMu.Unlock()
	if d.degraded && d.fallback != nil {
		return d.fallback
	}
	return d.primary
}

// degrade flips permanently to the fallback store. Once flipped the primary
// is never retried for the rest of the process lifetime.
func (d *Documents) degrade(err error) bool {
	d.degradedMu.Lock()
	defer d.degradedMu.Unlock()
	if d.degraded || d.fallback == nil {
		return false
	}
	d.degraded = true
	d.strong = true
	log.Printf("[storage] primary document store unavailable, switching to fallback: %v", err)
	return true
}

func (d *Documents) get(ctx context.Context, key string) ([]byte, error) {
	data, err := d.store().Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		if d.degrade(err) {
			return d.store().Get(ctx, key)
		}
	}
	return data, err
}

func (d *Documents) set(ctx context.Context, key string, data []byte) error {
	err := d.store().Set(ctx, key, data)
	if err != nil {
		if d.degrade(err) {
			return d.store().Set(ctx, key, data)
		}
	}
	return err
}

func (d *Documents) lockFor(key string) *sync.Mutex {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	mu, ok := d.keyLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		d.keyLocks[key] = mu
	}
	return mu
}

// Read decodes the document at key into out. An absent or corrupt document
// is reset to fallback and fallback is decoded into out; corruption is not
// an error.
func (d *Documents) Read(ctx context.Context, key string, out any, fallback any) error {
	data, err := d.get(ctx, key)
	if err == nil {
		if jsonErr := json.Unmarshal(data, out); jsonErr == nil {
			return nil
		}
		// Corrupt document: fall through and reset it.
	} else if !errors.Is(err, domain.ErrKeyNotFound) {
		return err
	}

	if err := d.Write(ctx, key, fallback); err != nil {
		return err
	}
	seed, err := json.Marshal(fallback)
	if err != nil {
		return err
	}
	return json.Unmarshal(seed, out)
}

// Write marshals value and persists it. Writes for the same key are
// serialized so concurrent writers never interleave; writes to different
// keys proceed independently.
func (d *Documents) Write(ctx context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	mu := d.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	return d.set(ctx, key, data)
}
