package app

import (
	"context"
	"time"
)

// DefaultCacheTTL bounds catalog and settings staleness on shared backends.
const DefaultCacheTTL = 10 * time.Second

// Services wires every application component over one document store.
type Services struct {
	Docs      *Documents
	Images    *Images
	Cache     *Cache
	Activity  *ActivityHub
	Settings  *SettingsService
	Catalog   *Catalog
	Users     *Users
	Cooldowns *Cooldowns
	Wallet    *Wallet
	Responses *Responses
	Sensible  *Sensible
	Selector  *Selector
	Validator *Validator
}

// NewServices assembles the service graph. fallback may be nil when no
// failover store is configured; strong marks read-after-write backends.
func NewServices(primary, fallback DocumentStore, strong bool, imageStore ImageStore, cacheTTL time.Duration) *Services {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	docs := NewDocuments(primary, fallback, strong)
	images := NewImages(imageStore)
	cache := NewCache()
	activity := NewActivityHub()
	settings := NewSettingsService(docs, cache, cacheTTL)
	catalog := NewCatalog(docs, images, cache, cacheTTL)
	users := NewUsers(docs)
	cooldowns := NewCooldowns(docs)
	wallet := NewWallet(docs, users, settings, activity)
	responses := NewResponses(docs, images, users, cooldowns, activity)
	sensible := NewSensible(catalog, users, images, cooldowns)
	selector := NewSelector(catalog, users, responses, cooldowns, wallet, settings)
	validator := NewValidator(catalog, responses, wallet, users, activity)
	return &Services{
		Docs:      docs,
		Images:    images,
		Cache:     cache,
		Activity:  activity,
		Settings:  settings,
		Catalog:   catalog,
		Users:     users,
		Cooldowns: cooldowns,
		Wallet:    wallet,
		Responses: responses,
		Sensible:  sensible,
		Selector:  selector,
		Validator: validator,
	}
}

// Seed prepares base documents on an empty store.
func (s *Services) Seed(ctx context.Context) error {
	return s.Catalog.Seed(ctx)
}

// RemoveUserData cascades a user deletion across every document that keys on
// the user: answers, completions, balance, payments and cooldowns.
func (s *Services) RemoveUserData(ctx context.Context, userID string) error {
	if err := s.Users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.Responses.RemoveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.Wallet.RemoveUser(ctx, userID); err != nil {
		return err
	}
	return s.Cooldowns.RemoveUser(ctx, userID)
}
