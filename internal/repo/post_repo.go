// Package repo — repository functions for the Post model and its tag rows.
//
// A post owns its rows in the tag index: every write path here that touches
// the tag set runs the post write and the tag writes in one transaction, so
// a post can never exist without its tags or vice versa. Readers of the tag
// index must still tolerate dangling references (a crashed migration, a
// manual delete); the feed assembler skips candidates it cannot resolve.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// CreatePostWithTags inserts the post row and one tag row per tag as a
// single atomic write. Tags must already be normalized (lowercase,
// deduplicated). A duplicate post ID returns ErrDuplicate.
func CreatePostWithTags(ctx context.Context, db *gorm.DB, p *domain.Post, tags []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicate
			}
			return err
		}
		return insertTagRows(tx, p.ID, tags)
	})
}

// GetPostByID fetches a single post through the post_id secondary index,
// regardless of owner. Returns ErrNotFound when absent.
func GetPostByID(ctx context.Context, db *gorm.DB, postID string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("post_id = ?", postID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPostsByUser returns all posts authored by userID, newest first
// (flake IDs sort chronologically, so post_id descending is creation-time
// descending).
func ListPostsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("post_id desc").
		Find(&out).Error
	return out, err
}

// GetPostsByIDs fetches the post rows for a batch of candidate IDs in one
// query, returned keyed by post ID. IDs with no backing row are simply
// absent from the map; the caller decides whether that is an error.
func GetPostsByIDs(ctx context.Context, db *gorm.DB, postIDs []string) (map[string]domain.Post, error) {
	out := make(map[string]domain.Post, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []domain.Post
	if err := db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// UpdatePost applies a partial update to a post, conditional on the caller
// owning it. When newTags is non-nil the post's tag rows are replaced in
// the same transaction (delete-then-insert); a post whose prior tag rows
// cannot be located fails with ErrNotFound rather than silently creating
// orphaned tags. Returns ErrNotFound when the (userID, postID) row is
// absent — the caller cannot distinguish "no such post" from "not yours",
// which is deliberate.
func UpdatePost(ctx context.Context, db *gorm.DB, userID, postID string, p *Patch, newTags []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Post{}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Updates(p.Columns())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if newTags == nil {
			return nil
		}
		del := tx.Where("post_id = ?", postID).Delete(&domain.Tag{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			// Tag rows are written atomically with the post; their absence
			// means the index is inconsistent for this post.
			return ErrNotFound
		}
		return insertTagRows(tx, postID, newTags)
	})
}

// DeletePostWithTags removes a post and all of its tag rows atomically,
// conditional on ownership. Returns ErrNotFound when the (userID, postID)
// row does not exist.
func DeletePostWithTags(ctx context.Context, db *gorm.DB, userID, postID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&domain.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("post_id = ?", postID).Delete(&domain.Tag{}).Error
	})
}

// PostsStats returns aggregate metadata for a user's posts: the total
// number of rows and the greatest updated_at among them. Used for weak
// ETag generation on the list endpoint. When the user has no posts the
// returned count is 0 and maxUpdatedAt is nil.
func PostsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Post{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt int64
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	ts := time.UnixMilli(row.UpdatedAt).UTC()
	return count, &ts, nil
}
