// Package domain defines the persistence models for users, posts, tags,
// comments, and revoked tokens. These types are mapped with GORM and form
// the core data layer of the blog backend.
//
// None of the content tables carry a created_at column: every entity is
// keyed by a flake ID that embeds its creation time, and the timestamp is
// decoded from the ID when shaping responses (see internal/flake).
package domain

import "time"

// User is an account holder. Email is the unique human-facing key used for
// sign-in; ID is the flake identifier used everywhere else. Tags drive the
// personalized feed: a user subscribes to at most five lowercase tags.
//
// Password holds a bcrypt hash, never plaintext. Token stores the currently
// valid session token so the auth middleware can reject JWTs that were
// superseded by a later sign-in, and so rotation can blacklist the old
// token until its own expiry.
type User struct {
	ID        string   `json:"user_id"  gorm:"column:user_id;type:varchar(20);primaryKey"`
	Email     string   `json:"email"    gorm:"type:varchar(254);not null;uniqueIndex:ux_users_email"`
	Name      string   `json:"name"     gorm:"type:varchar(100);not null"`
	Password  string   `json:"-"        gorm:"type:varchar(72);not null"`
	Tags      []string `json:"tags"     gorm:"serializer:json;type:text"`
	Token     string   `json:"-"        gorm:"type:varchar(512)"`
	UpdatedAt int64    `json:"updated_at,omitempty" gorm:"autoUpdateTime:milli"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Post is an article authored by a user. The primary key is the
// (user_id, post_id) pair, mirroring the owner-scoped access pattern;
// post_id alone is covered by a secondary index for direct lookups.
//
// A post's tags are deliberately NOT stored on the row: they live only in
// the tags table (see Tag) and are joined in when shaping responses. Any
// write that touches a post's tag set must touch both tables in a single
// transaction.
type Post struct {
	UserID    string `json:"user_id" gorm:"type:varchar(20);primaryKey"`
	ID        string `json:"post_id" gorm:"column:post_id;type:varchar(20);primaryKey;index:idx_posts_post_id"`
	Title     string `json:"title"   gorm:"type:varchar(255);not null"`
	Content   string `json:"content" gorm:"type:text;not null"`
	UpdatedAt int64  `json:"updated_at,omitempty" gorm:"autoUpdateTime:milli"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Tag is one row of the tag index: the association (tag, post). The table
// is queried in both directions — by tag when assembling feeds, and by post
// when shaping a post response. Rows are owned by the post and are written
// and deleted in the same transaction as the owning post row.
type Tag struct {
	Name   string `json:"tag"     gorm:"column:tag;type:varchar(64);primaryKey"`
	PostID string `json:"post_id" gorm:"type:varchar(20);primaryKey;index:idx_tags_post_id"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Comment is a remark on a post, optionally replying to another comment
// (one level only; replies to replies are not resolved). Keyed by
// (user_id, comment_id) with secondary indexes on post_id and comment_id
// for the two read paths.
type Comment struct {
	UserID    string `json:"user_id"    gorm:"type:varchar(20);primaryKey"`
	ID        string `json:"comment_id" gorm:"column:comment_id;type:varchar(20);primaryKey;index:idx_comments_comment_id"`
	PostID    string `json:"post_id"    gorm:"type:varchar(20);not null;index:idx_comments_post_id"`
	Content   string `json:"content"    gorm:"type:text;not null"`
	ReplyTo   string `json:"reply_to,omitempty" gorm:"type:varchar(20)"`
	UpdatedAt int64  `json:"updated_at,omitempty" gorm:"autoUpdateTime:milli"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// RevokedToken blacklists a session token until it would have expired
// anyway. Rows are written when a sign-in or sign-out rotates the session,
// in the same transaction as the user row update, and are expunged lazily
// once ExpiresAt has passed.
type RevokedToken struct {
	Token     string    `gorm:"type:varchar(512);primaryKey"`
	UserID    string    `gorm:"type:varchar(20);not null;index:idx_revoked_user_id"`
	ExpiresAt time.Time `gorm:"not null;index:idx_revoked_expires"`
}

// TableName returns the database table name for RevokedToken.
func (RevokedToken) TableName() string { return "revoked_tokens" }

// Idempotency records the outcome of a previously processed post-creation
// request, keyed by (user_id, key). It enables safe retries for POST
// operations: a replayed request returns the originally created post
// instead of minting a duplicate.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:2"`
	PostID    string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
