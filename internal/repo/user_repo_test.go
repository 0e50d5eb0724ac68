package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{ID: "1", Email: "a@b.co", Name: "Ada", Password: "x", Tags: []string{"go"}}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	dup := &domain.User{ID: "2", Email: "a@b.co", Name: "Bob", Password: "x", Tags: []string{"go"}}
	if err := CreateUser(ctx, db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUser_ByEmailAndByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{ID: "42", Email: "a@b.co", Name: "Ada", Password: "x", Tags: []string{"go", "sqlite"}}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byEmail, err := GetUserByEmail(ctx, db, "a@b.co")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != "42" || len(byEmail.Tags) != 2 {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	byID, err := GetUserByID(ctx, db, "42")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Email != "a@b.co" {
		t.Fatalf("unexpected user: %+v", byID)
	}

	if _, err := GetUserByEmail(ctx, db, "missing@b.co"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser_MissingRow(t *testing.T) {
	db := newTestDB(t)
	var p Patch
	p.Set("name", "New Name")
	if err := UpdateUser(context.Background(), db, "ghost", &p); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser_AppliesPatchAndStampsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{ID: "1", Email: "a@b.co", Name: "Ada", Password: "x", Tags: []string{"go"}}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	var p Patch
	p.Set("name", "Grace")
	if err := UpdateUser(ctx, db, "1", &p); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := GetUserByID(ctx, db, "1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Name != "Grace" {
		t.Fatalf("name = %q, want Grace", got.Name)
	}
	if got.UpdatedAt == 0 {
		t.Fatal("updated_at not stamped")
	}
}

func TestRotateToken_WritesBothRowsAtomically(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	u := &domain.User{ID: "1", Email: "a@b.co", Name: "Ada", Password: "x", Tags: []string{"go"}, Token: "old-token"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := RotateToken(ctx, db, "1", "new-token", "old-token", now.Add(time.Hour)); err != nil {
		t.Fatalf("RotateToken: %v", err)
	}

	got, err := GetUserByID(ctx, db, "1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Token != "new-token" {
		t.Fatalf("stored token = %q, want new-token", got.Token)
	}

	revoked, err := IsTokenRevoked(ctx, db, "old-token", now)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Fatal("old token should be blacklisted after rotation")
	}
}

func TestRotateToken_MissingUserWritesNothing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	err := RotateToken(ctx, db, "ghost", "new-token", "old-token", now.Add(time.Hour))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Transaction must have rolled back the blacklist write too.
	revoked, err := IsTokenRevoked(ctx, db, "old-token", now)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Fatal("blacklist row must not survive a rolled-back rotation")
	}
}

func TestRotateToken_EmptyPrevSkipsBlacklist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{ID: "1", Email: "a@b.co", Name: "Ada", Password: "x", Tags: []string{"go"}}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := RotateToken(ctx, db, "1", "new-token", "", time.Now()); err != nil {
		t.Fatalf("RotateToken: %v", err)
	}
	var count int64
	if err := db.Model(&domain.RevokedToken{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty blacklist, got %d rows", count)
	}
}

func TestIsTokenRevoked_ExpiredRowIsExpunged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	rec := &domain.RevokedToken{Token: "stale", UserID: "1", ExpiresAt: now.Add(-time.Minute)}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	revoked, err := IsTokenRevoked(ctx, db, "stale", now)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Fatal("expired blacklist row must not revoke")
	}
	var count int64
	if err := db.Model(&domain.RevokedToken{}).Where("token = ?", "stale").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatal("expired row should be expunged on read")
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	rows := []domain.RevokedToken{
		{Token: "expired-1", UserID: "1", ExpiresAt: now.Add(-time.Hour)},
		{Token: "expired-2", UserID: "1", ExpiresAt: now.Add(-time.Minute)},
		{Token: "live", UserID: "1", ExpiresAt: now.Add(time.Hour)},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := PurgeExpiredTokens(ctx, db, now)
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged %d rows, want 2", n)
	}
	revoked, err := IsTokenRevoked(ctx, db, "live", now)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Fatal("live blacklist row must survive the purge")
	}
}
