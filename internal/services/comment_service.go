// Package services – CommentService
//
// This file implements CommentService: comments on posts, with one level
// of replies. A reply's target must be an existing comment on the same
// post; replies to replies are accepted but not threaded any deeper when
// listing.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/flake"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// CommentService coordinates comment persistence.
type CommentService struct {
	DB  *gorm.DB
	IDs *flake.Generator
}

// CommentDetail is a Comment with the creation time decoded from its ID.
type CommentDetail struct {
	domain.Comment
	CreatedAt int64 `json:"created_at"`
}

// CommentThread is a top-level comment with its direct replies, oldest
// first on both levels.
type CommentThread struct {
	CommentDetail
	Replies []CommentDetail `json:"replies,omitempty"`
}

// Create adds a comment to a post. The post must exist; when replyTo is
// non-empty it must name an existing comment on the same post. Returns
// ErrPostNotFound or ErrCommentNotFound accordingly.
func (s *CommentService) Create(ctx context.Context, userID, postID, content, replyTo string) (*CommentDetail, error) {
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}
	if _, err := repo.GetPostByID(ctx, s.DB, postID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if replyTo != "" {
		target, err := repo.GetCommentByID(ctx, s.DB, replyTo)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrCommentNotFound
			}
			return nil, err
		}
		if target.PostID != postID {
			return nil, ErrCommentNotFound
		}
	}

	now := time.Now()
	id, err := s.IDs.Next(now, flake.CommentEpoch)
	if err != nil {
		return nil, err
	}
	c := &domain.Comment{
		UserID:  userID,
		ID:      id,
		PostID:  postID,
		Content: content,
		ReplyTo: replyTo,
	}
	if err := repo.CreateComment(ctx, s.DB, c); err != nil {
		return nil, err
	}
	return &CommentDetail{Comment: *c, CreatedAt: now.UnixMilli()}, nil
}

// ListForPost returns a post's comments grouped one level deep: top-level
// comments in creation order, each carrying its direct replies. A reply
// whose target is itself a reply is surfaced at the top level rather than
// nested further. Returns ErrPostNotFound when the post does not exist;
// a post with no comments yields an empty slice.
func (s *CommentService) ListForPost(ctx context.Context, postID string) ([]CommentThread, error) {
	if _, err := repo.GetPostByID(ctx, s.DB, postID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	comments, err := repo.ListCommentsByPost(ctx, s.DB, postID)
	if err != nil {
		return nil, err
	}

	topLevel := make(map[string]bool, len(comments))
	for _, c := range comments {
		if c.ReplyTo == "" {
			topLevel[c.ID] = true
		}
	}

	threads := make([]CommentThread, 0, len(comments))
	index := make(map[string]int, len(comments))
	for _, c := range comments {
		createdAt, err := flake.CreatedAt(c.ID, flake.CommentEpoch)
		if err != nil {
			return nil, err
		}
		detail := CommentDetail{Comment: c, CreatedAt: createdAt}
		if c.ReplyTo != "" && topLevel[c.ReplyTo] {
			// Comments list oldest-first, so the parent is already placed.
			i := index[c.ReplyTo]
			threads[i].Replies = append(threads[i].Replies, detail)
			continue
		}
		index[c.ID] = len(threads)
		threads = append(threads, CommentThread{CommentDetail: detail})
	}
	return threads, nil
}

// Update changes the content of a comment the caller authored. Returns
// ErrCommentNotFound when the comment is absent or not theirs, ErrNoFields
// when content is nil.
func (s *CommentService) Update(ctx context.Context, userID, commentID string, content *string) error {
	if content == nil {
		return ErrNoFields
	}
	if err := domain.ValidateContent(*content); err != nil {
		return err
	}
	var p repo.Patch
	p.Set("content", *content)
	if err := repo.UpdateComment(ctx, s.DB, userID, commentID, &p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

// Delete removes a comment the caller authored. Returns ErrCommentNotFound
// when the comment is absent or not theirs. Replies to a deleted comment
// are kept and surface at the top level of subsequent listings.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	if err := repo.DeleteComment(ctx, s.DB, userID, commentID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}
