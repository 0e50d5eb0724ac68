// Package repo — repository functions for the Comment model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// CreateComment inserts a comment row. A duplicate comment ID returns
// ErrDuplicate.
func CreateComment(ctx context.Context, db *gorm.DB, c *domain.Comment) error {
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetCommentByID fetches a comment through the comment_id secondary index,
// regardless of author. Returns ErrNotFound when absent. Used to resolve
// reply targets before accepting a reply.
func GetCommentByID(ctx context.Context, db *gorm.DB, commentID string) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.WithContext(ctx).Where("comment_id = ?", commentID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCommentsByPost returns every comment on postID, oldest first so that
// reply grouping preserves conversational order. An empty result is not an
// error; the caller decides whether a commentless post is worth reporting.
func ListCommentsByPost(ctx context.Context, db *gorm.DB, postID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("comment_id asc").
		Find(&out).Error
	return out, err
}

// UpdateComment applies a partial update to a comment, conditional on the
// caller being its author. Returns ErrNotFound when no (userID, commentID)
// row matches.
func UpdateComment(ctx context.Context, db *gorm.DB, userID, commentID string, p *Patch) error {
	res := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Updates(p.Columns())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment removes a comment, conditional on authorship. Returns
// ErrNotFound when no (userID, commentID) row matches — deleting someone
// else's comment is indistinguishable from deleting a nonexistent one.
func DeleteComment(ctx context.Context, db *gorm.DB, userID, commentID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&domain.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
