package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yaroph/connect/internal/domain"
)

func TestUsersReadRepairsLegacyRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()

	// A record written before normalization existed.
	if err := s.Docs.Write(ctx, DocUsers, []map[string]any{
		{"id": "u1", "prenom": "Anne", "nom": "Roy", "compteBancaire": "12-34"},
	}); err != nil {
		t.Fatalf("seed raw: %v", err)
	}

	users, err := s.Users.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if users[0].FullName != "Anne Roy" || users[0].CompteBancaire != "1234" {
		t.Fatalf("normalized user = %+v", users[0])
	}

	// The repaired record must have been written back.
	var stored []domain.User
	if err := s.Docs.Read(ctx, DocUsers, &stored, []domain.User{}); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if stored[0].FullName != "Anne Roy" {
		t.Fatalf("read repair did not persist: %+v", stored[0])
	}
}

func TestUsersUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1", Prenom: "A", Nom: "B"})

	updated, err := s.Users.Update(ctx, "u1", func(u *domain.User) error {
		u.Metier = "pilote"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Metier != "pilote" {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := s.Users.Update(ctx, "ghost", func(u *domain.User) error { return nil }); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	if err := s.Users.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Users.Get(ctx, "u1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user gone, got %v", err)
	}
}

func TestResolveNamePrefersProvidedName(t *testing.T) {
	ctx := context.Background()
	s := newTestStack()
	seedUser(t, s, domain.User{ID: "u1", Prenom: "Luc", Nom: "Henri"})

	if got := s.Users.ResolveName(ctx, "u1", "Client Provided"); got != "Client Provided" {
		t.Fatalf("ResolveName = %q", got)
	}
	if got := s.Users.ResolveName(ctx, "u1", ""); got != "Luc Henri" {
		t.Fatalf("ResolveName stored fallback = %q", got)
	}
	if got := s.Users.ResolveName(ctx, "ghost", "Client Provided"); got != "Client Provided" {
		t.Fatalf("ResolveName for unknown user = %q", got)
	}
	if got := s.Users.ResolveName(ctx, "ghost", ""); got != "Utilisateur" {
		t.Fatalf("ResolveName default = %q", got)
	}
}
