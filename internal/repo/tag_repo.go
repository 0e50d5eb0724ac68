// Package repo — the tag index.
//
// The tags table stores one row per (tag, post) association and is queried
// in both directions: by post when shaping a post response, and by tag when
// the feed assembler fans out over a user's subscriptions. Per-tag reads
// are capped because a popular tag may carry orders of magnitude more posts
// than one feed page needs; an unbounded read would be a cost and
// denial-of-service risk against the store.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// MaxPostsPerTag caps how many post IDs a single by-tag query returns.
const MaxPostsPerTag = 500

// TagsOfPost returns the tags associated with postID in lexical order.
// A post with no tag rows yields an empty slice, not an error.
func TagsOfPost(ctx context.Context, db *gorm.DB, postID string) ([]string, error) {
	var rows []domain.Tag
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("tag asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out, nil
}

// PostIDsWithTag returns up to limit post IDs carrying the given tag,
// newest first. A limit of 0 or anything above MaxPostsPerTag is clamped
// to MaxPostsPerTag. Tags are matched post-normalization, so lookups are
// case-insensitive as long as callers normalize (domain.NormalizeTags).
func PostIDsWithTag(ctx context.Context, db *gorm.DB, tag string, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxPostsPerTag {
		limit = MaxPostsPerTag
	}
	var rows []domain.Tag
	err := db.WithContext(ctx).
		Where("tag = ?", tag).
		Order("post_id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.PostID)
	}
	return out, nil
}

// insertTagRows writes one tag row per tag for postID on the given handle,
// which is expected to be transaction-bound by the caller.
func insertTagRows(tx *gorm.DB, postID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, domain.Tag{Name: t, PostID: postID})
	}
	return tx.Create(&rows).Error
}
