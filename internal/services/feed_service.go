// Package services – FeedService
//
// This file implements the personalized feed assembler. A user's feed is
// the union of recent posts carrying any of the user's subscribed tags
// (at most five), newest first, paginated by an opaque cursor.
//
// Assembly is a bounded scatter-gather: one goroutine per subscribed tag
// queries the tag index (capped per tag, see repo.MaxPostsPerTag), results
// are deduplicated by post ID, ordered newest-first by the numeric value
// of the flake ID, windowed below the cursor, and only then joined with
// post bodies, tags, and comments. A candidate that cannot be resolved —
// a dangling tag row, a malformed ID — is logged and skipped rather than
// failing the page.
//
// Observability: public methods are OpenTelemetry-instrumented in the same
// way as the other services.
package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/flake"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// DefaultFeedPageSize is how many posts one feed page carries.
const DefaultFeedPageSize = 20

// FirstPageCursor is the cursor value that requests the first page. The
// empty string is accepted as an alias.
const FirstPageCursor = "null"

// FeedService assembles personalized feeds from the tag index.
type FeedService struct {
	DB *gorm.DB

	// PageSize overrides DefaultFeedPageSize when positive.
	PageSize int
}

// FeedComment is the comment projection embedded in feed entries: just
// enough to render a comment row without a second request.
type FeedComment struct {
	ID      string `json:"comment_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// FeedPost is one feed entry: the post joined with its tags, its comments,
// and the creation time decoded from the post ID.
type FeedPost struct {
	UserID    string        `json:"user_id"`
	ID        string        `json:"post_id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Tags      []string      `json:"tags"`
	Comments  []FeedComment `json:"comments"`
	CreatedAt int64         `json:"created_at"`
}

// FeedPage is one page of a user's feed. NextCursor is set only when the
// page is full; passing it back returns the next window.
type FeedPage struct {
	Posts      []FeedPost `json:"posts"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Assemble builds one feed page for userID. cursor is the post ID of the
// last entry of the previous page, or FirstPageCursor (or empty) for the
// first page. A user with no subscribed tags, or no matching posts, gets
// an empty page — that is a valid feed, not an error.
func (s *FeedService) Assemble(ctx context.Context, userID, cursor string) (*FeedPage, error) {
	tr := otel.Tracer("services/FeedService")
	ctx, span := tr.Start(ctx, "Assemble",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("feed.cursor", cursor),
		),
	)
	defer span.End()

	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if len(u.Tags) == 0 {
		return &FeedPage{Posts: []FeedPost{}}, nil
	}

	candidates := s.gather(ctx, u.Tags)
	ordered, err := orderCandidates(candidates, cursor)
	if err != nil {
		return nil, err
	}

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultFeedPageSize
	}
	if len(ordered) > pageSize {
		ordered = ordered[:pageSize]
	}

	posts, err := s.hydrate(ctx, ordered)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("feed.page_len", len(posts)))

	page := &FeedPage{Posts: posts}
	if len(ordered) == pageSize && len(posts) > 0 {
		page.NextCursor = posts[len(posts)-1].ID
	}
	return page, nil
}

// gather fans out one tag-index query per subscribed tag and returns the
// deduplicated candidate set. A failed per-tag query degrades the feed (its
// posts are missing this round) instead of failing the whole page.
func (s *FeedService) gather(ctx context.Context, tags []string) map[string]struct{} {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		candidates = make(map[string]struct{})
	)
	for _, tag := range tags {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			ids, err := repo.PostIDsWithTag(ctx, s.DB, tag, repo.MaxPostsPerTag)
			if err != nil {
				log.Warn().Err(err).Str("tag", tag).Msg("tag fan-out query failed; skipping tag")
				return
			}
			mu.Lock()
			for _, id := range ids {
				candidates[id] = struct{}{}
			}
			mu.Unlock()
		}(tag)
	}
	wg.Wait()
	return candidates
}

// orderCandidates sorts the candidate IDs newest-first by numeric value and
// drops everything at or above the cursor. Flake IDs are decimal renderings
// of uint64s, so lexical order is NOT chronological; the comparison must be
// numeric. Malformed IDs in the index are logged and skipped.
func orderCandidates(candidates map[string]struct{}, cursor string) ([]string, error) {
	var cursorVal uint64
	havecursor := cursor != "" && cursor != FirstPageCursor
	if havecursor {
		v, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, ErrBadCursor
		}
		cursorVal = v
	}

	type candidate struct {
		id  string
		val uint64
	}
	ordered := make([]candidate, 0, len(candidates))
	for id := range candidates {
		v, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			log.Warn().Str("post_id", id).Msg("malformed post id in tag index; skipping")
			continue
		}
		if havecursor && v >= cursorVal {
			continue
		}
		ordered = append(ordered, candidate{id: id, val: v})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].val > ordered[j].val })

	out := make([]string, 0, len(ordered))
	for _, c := range ordered {
		out = append(out, c.id)
	}
	return out, nil
}

// hydrate joins each windowed candidate with its post row, tags, comments,
// and decoded creation time. Posts are fetched in one batch; a candidate
// whose post row is gone or whose joins fail is logged and skipped.
func (s *FeedService) hydrate(ctx context.Context, postIDs []string) ([]FeedPost, error) {
	rows, err := repo.GetPostsByIDs(ctx, s.DB, postIDs)
	if err != nil {
		return nil, err
	}

	out := make([]FeedPost, 0, len(postIDs))
	for _, id := range postIDs {
		p, ok := rows[id]
		if !ok {
			log.Warn().Str("post_id", id).Msg("tag index references missing post; skipping")
			continue
		}
		tags, err := repo.TagsOfPost(ctx, s.DB, id)
		if err != nil {
			log.Warn().Err(err).Str("post_id", id).Msg("failed to join tags; skipping post")
			continue
		}
		comments, err := repo.ListCommentsByPost(ctx, s.DB, id)
		if err != nil {
			log.Warn().Err(err).Str("post_id", id).Msg("failed to join comments; skipping post")
			continue
		}
		createdAt, err := flake.CreatedAt(id, flake.PostEpoch)
		if err != nil {
			log.Warn().Err(err).Str("post_id", id).Msg("failed to decode post id; skipping post")
			continue
		}

		projected := make([]FeedComment, 0, len(comments))
		for _, c := range comments {
			projected = append(projected, FeedComment{ID: c.ID, UserID: c.UserID, Content: c.Content})
		}
		out = append(out, FeedPost{
			UserID:    p.UserID,
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			Tags:      tags,
			Comments:  projected,
			CreatedAt: createdAt,
		})
	}
	return out, nil
}
