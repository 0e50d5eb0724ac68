// Package services – UserService
//
// This file implements UserService, which owns the account lifecycle:
// sign-up, sign-in, sign-out, profile reads, and partial profile updates.
// Session rotation is atomic — the user row's stored token and the
// blacklist entry for the outgoing token are written in one transaction,
// so a session can never rotate without the previous token being revoked.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/auth"
	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/flake"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// UserService coordinates account persistence and session management.
type UserService struct {
	DB     *gorm.DB
	IDs    *flake.Generator
	Tokens *auth.TokenManager
}

// UserProfile is a User joined with the creation time decoded from its ID.
type UserProfile struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	CreatedAt int64        `json:"created_at"`
}

// titleCaser normalizes display names ("ada lovelace" → "Ada Lovelace").
var titleCaser = cases.Title(language.English)

// SignUp registers a new account. The display name is title-cased, tags are
// normalized and bounded, the password is hashed, and a fresh session token
// is issued and stored on the row. Returns ErrEmailTaken when the email is
// already registered.
func (s *UserService) SignUp(ctx context.Context, name, email, password string, tags []string) (*UserProfile, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}
	normTags, err := domain.NormalizeTags(tags)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	id, err := s.IDs.Next(now, flake.UserEpoch)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	token, err := s.Tokens.Issue(id, email, now)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:       id,
		Email:    email,
		Name:     titleCaser.String(name),
		Password: hash,
		Tags:     normTags,
		Token:    token,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &UserProfile{User: u, Token: token, CreatedAt: now.UnixMilli()}, nil
}

// SignIn verifies credentials and rotates the session: a fresh token is
// issued and stored, and the previous one is blacklisted until its own
// expiry. Returns ErrUserNotFound or ErrWrongPassword on bad credentials.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*UserProfile, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !auth.CheckPassword(u.Password, password) {
		return nil, ErrWrongPassword
	}

	now := time.Now()
	token, err := s.Tokens.Issue(u.ID, u.Email, now)
	if err != nil {
		return nil, err
	}
	if err := s.rotate(ctx, u, token, now); err != nil {
		return nil, err
	}

	createdAt, err := flake.CreatedAt(u.ID, flake.UserEpoch)
	if err != nil {
		return nil, err
	}
	u.Token = token
	return &UserProfile{User: u, Token: token, CreatedAt: createdAt}, nil
}

// SignOut invalidates the caller's session. The stored token is replaced
// with a fresh one that is never handed out, and the outgoing token is
// blacklisted; any JWT issued earlier stops authenticating immediately.
func (s *UserService) SignOut(ctx context.Context, email, password string) error {
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !auth.CheckPassword(u.Password, password) {
		return ErrWrongPassword
	}

	now := time.Now()
	replacement, err := s.Tokens.Issue(u.ID, u.Email, now)
	if err != nil {
		return err
	}
	return s.rotate(ctx, u, replacement, now)
}

// rotate writes the new token to the user row and blacklists the previous
// one in a single transaction. The blacklist entry expires when the old
// token itself would have; if its expiry cannot be decoded the entry is
// kept for a full token lifetime as the safe upper bound.
func (s *UserService) rotate(ctx context.Context, u *domain.User, newToken string, now time.Time) error {
	prevExpires := now.Add(auth.TokenTTL)
	if u.Token != "" {
		if claims, err := auth.Decode(u.Token); err == nil && claims.ExpiresAt != nil {
			prevExpires = claims.ExpiresAt.Time
		}
	}
	return repo.RotateToken(ctx, s.DB, u.ID, newToken, u.Token, prevExpires)
}

// Get returns the profile of userID with the decoded creation timestamp.
func (s *UserService) Get(ctx context.Context, userID string) (*UserProfile, error) {
	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	createdAt, err := flake.CreatedAt(u.ID, flake.UserEpoch)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: u, CreatedAt: createdAt}, nil
}

// Update applies a partial profile update: only non-nil fields change, and
// updated_at is stamped by the patch builder. Tags pass through the same
// normalization as sign-up. Returns ErrNoFields when nothing would change.
func (s *UserService) Update(ctx context.Context, userID string, name, password *string, tags []string) error {
	var p repo.Patch
	if name != nil {
		if err := domain.ValidateName(*name); err != nil {
			return err
		}
		p.Set("name", titleCaser.String(*name))
	}
	if password != nil {
		if err := domain.ValidatePassword(*password); err != nil {
			return err
		}
		hash, err := auth.HashPassword(*password)
		if err != nil {
			return err
		}
		p.Set("password", hash)
	}
	if tags != nil {
		normTags, err := domain.NormalizeTags(tags)
		if err != nil {
			return err
		}
		// Column-map updates bypass GORM's field serializer, so the JSON
		// encoding happens here.
		encoded, err := json.Marshal(normTags)
		if err != nil {
			return err
		}
		p.Set("tags", string(encoded))
	}
	if p.Empty() {
		return ErrNoFields
	}

	if err := repo.UpdateUser(ctx, s.DB, userID, &p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
