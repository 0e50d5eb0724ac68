// Package services – PostService
//
// This file implements PostService, which owns the post lifecycle. Tag
// rows live only in the tag index and are written, replaced, and deleted
// in the same transaction as the owning post row (see internal/repo).
// Post creation supports Idempotency-Key replay: a retried request with
// the same key returns the originally created post instead of minting a
// second one.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/flake"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// PostService coordinates post persistence and tag-index maintenance.
type PostService struct {
	DB  *gorm.DB
	IDs *flake.Generator

	// IdempotencyTTL bounds how long a given Idempotency-Key replays the
	// original result. Zero disables recording.
	IdempotencyTTL time.Duration
}

// PostDetail is a Post joined with its tags and the creation time decoded
// from its ID.
type PostDetail struct {
	Post      *domain.Post `json:"post"`
	Tags      []string     `json:"tags"`
	CreatedAt int64        `json:"created_at"`
	Replayed  bool         `json:"-"`
}

// PostSummary is a Post with its decoded creation time, used by the
// per-user listing (tags are not joined there).
type PostSummary struct {
	domain.Post
	CreatedAt int64 `json:"created_at"`
}

// Create validates and persists a new post with its tag rows atomically.
// When idemKey is non-empty and a non-expired record exists for
// (userID, idemKey), the previously created post is returned with
// Replayed set instead of creating anything.
func (s *PostService) Create(ctx context.Context, userID, title, content string, tags []string, idemKey string) (*PostDetail, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}
	normTags, err := domain.NormalizeTags(tags)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, userID, idemKey, now); err == nil {
			detail, err := s.Get(ctx, rec.PostID)
			if err != nil {
				return nil, err
			}
			detail.Replayed = true
			return detail, nil
		}
	}

	id, err := s.IDs.Next(now, flake.PostEpoch)
	if err != nil {
		return nil, err
	}
	p := &domain.Post{
		UserID:  userID,
		ID:      id,
		Title:   title,
		Content: content,
	}
	if err := repo.CreatePostWithTags(ctx, s.DB, p, normTags); err != nil {
		return nil, err
	}

	if idemKey != "" && s.IdempotencyTTL > 0 {
		// Best effort: losing the record only costs replay protection.
		if _, err := repo.CreateIdempotency(ctx, s.DB, userID, idemKey, id, http.StatusCreated, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			log.Warn().Err(err).Str("post_id", id).Msg("failed to record idempotency key")
		}
	}

	return &PostDetail{Post: p, Tags: normTags, CreatedAt: now.UnixMilli()}, nil
}

// Get returns a single post joined with its tags, or ErrPostNotFound.
func (s *PostService) Get(ctx context.Context, postID string) (*PostDetail, error) {
	p, err := repo.GetPostByID(ctx, s.DB, postID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	tags, err := repo.TagsOfPost(ctx, s.DB, postID)
	if err != nil {
		return nil, err
	}
	createdAt, err := flake.CreatedAt(p.ID, flake.PostEpoch)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: p, Tags: tags, CreatedAt: createdAt}, nil
}

// ListByUser returns every post authored by userID, newest first, each
// with its decoded creation time.
func (s *PostService) ListByUser(ctx context.Context, userID string) ([]PostSummary, error) {
	posts, err := repo.ListPostsByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		createdAt, err := flake.CreatedAt(p.ID, flake.PostEpoch)
		if err != nil {
			return nil, err
		}
		out = append(out, PostSummary{Post: p, CreatedAt: createdAt})
	}
	return out, nil
}

// Update applies a partial update to a post the caller owns. Passing tags
// retags the post: old tag rows are deleted and the new set written in the
// same transaction as the post update. Returns ErrPostNotFound when the
// post is absent or owned by someone else, ErrNoFields when nothing would
// change.
func (s *PostService) Update(ctx context.Context, userID, postID string, title, content *string, tags []string) error {
	var (
		p        repo.Patch
		normTags []string
	)
	if title != nil {
		if err := domain.ValidateTitle(*title); err != nil {
			return err
		}
		p.Set("title", *title)
	}
	if content != nil {
		if err := domain.ValidateContent(*content); err != nil {
			return err
		}
		p.Set("content", *content)
	}
	if tags != nil {
		var err error
		if normTags, err = domain.NormalizeTags(tags); err != nil {
			return err
		}
	}
	if p.Empty() && normTags == nil {
		return ErrNoFields
	}

	if err := repo.UpdatePost(ctx, s.DB, userID, postID, &p, normTags); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// Delete removes a post the caller owns together with its tag rows.
// Returns ErrPostNotFound when the post is absent or not theirs.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	if err := repo.DeletePostWithTags(ctx, s.DB, userID, postID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}
