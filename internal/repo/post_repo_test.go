package repo

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

func TestCreatePostWithTags_WritesBothTables(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &domain.Post{UserID: "u1", ID: "100", Title: "Hello", Content: "body"}
	if err := CreatePostWithTags(ctx, db, p, []string{"golang", "sqlite"}); err != nil {
		t.Fatalf("CreatePostWithTags: %v", err)
	}

	got, err := GetPostByID(ctx, db, "100")
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if got.Title != "Hello" || got.UserID != "u1" {
		t.Fatalf("unexpected post: %+v", got)
	}
	tags, err := TagsOfPost(ctx, db, "100")
	if err != nil {
		t.Fatalf("TagsOfPost: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"golang", "sqlite"}) {
		t.Fatalf("tags = %v", tags)
	}
}

func TestCreatePostWithTags_DuplicateIDRollsBackTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &domain.Post{UserID: "u1", ID: "100", Title: "First", Content: "body"}
	if err := CreatePostWithTags(ctx, db, p, []string{"golang"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dup := &domain.Post{UserID: "u1", ID: "100", Title: "Again", Content: "body"}
	if err := CreatePostWithTags(ctx, db, dup, []string{"other"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// The failed create must not have left its tag rows behind.
	tags, err := TagsOfPost(ctx, db, "100")
	if err != nil {
		t.Fatalf("TagsOfPost: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"golang"}) {
		t.Fatalf("tags after failed duplicate = %v", tags)
	}
}

func TestListPostsByUser_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Flake IDs grow over time, so descending ID is descending creation time.
	for _, id := range []string{"100", "300", "200"} {
		p := &domain.Post{UserID: "u1", ID: id, Title: "t" + id, Content: "c"}
		if err := CreatePostWithTags(ctx, db, p, []string{"golang"}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	other := &domain.Post{UserID: "u2", ID: "400", Title: "other", Content: "c"}
	if err := CreatePostWithTags(ctx, db, other, []string{"golang"}); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	posts, err := ListPostsByUser(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListPostsByUser: %v", err)
	}
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(ids, []string{"300", "200", "100"}) {
		t.Fatalf("order = %v", ids)
	}
}

func TestGetPostsByIDs_BatchWithAbsentees(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &domain.Post{UserID: "u1", ID: "100", Title: "t", Content: "c"}
	if err := CreatePostWithTags(ctx, db, p, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rows, err := GetPostsByIDs(ctx, db, []string{"100", "999"})
	if err != nil {
		t.Fatalf("GetPostsByIDs: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if _, ok := rows["999"]; ok {
		t.Fatal("absent ID must not appear in the result map")
	}

	empty, err := GetPostsByIDs(ctx, db, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty batch: rows=%v err=%v", empty, err)
	}
}

func TestUpdatePost_ReplacesTagsAtomically(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &domain.Post{UserID: "u1", ID: "100", Title: "old", Content: "c"}
	if err := CreatePostWithTags(ctx, db, p, []string{"golang", "sqlite"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var patch Patch
	patch.Set("title", "new")
	if err := UpdatePost(ctx, db, "u1", "100", &patch, []string{"databases"}); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	got, err := GetPostByID(ctx, db, "100")
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if got.Title != "new" {
		t.Fatalf("title = %q", got.Title)
	}
	tags, err := TagsOfPost(ctx, db, "100")
	if err != nil {
		t.Fatalf("TagsOfPost: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"databases"}) {
		t.Fatalf("tags = %v", tags)
	}
}

func TestUpdatePost_WrongOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &domain.Post{UserID: "u1", ID: "100", Title: "t", Content: "c"}
	if err := CreatePostWithTags(ctx, db, p, []string{"golang"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var patch Patch
	patch.Set("title", "hijacked")
	if err := UpdatePost(ctx, db, "u2", "100", &patch, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := GetPostByID(ctx, db, "100")
	if got.Title != "t" {
		t.Fatalf("title changed despite ownership failure: %q", got.Title)
	}
}

func TestDeletePostWithTags_RemovesIndexRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &domain.Post{UserID: "u1", ID: "100", Title: "t", Content: "c"}
	if err := CreatePostWithTags(ctx, db, p, []string{"golang", "sqlite"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := DeletePostWithTags(ctx, db, "u1", "100"); err != nil {
		t.Fatalf("DeletePostWithTags: %v", err)
	}
	if _, err := GetPostByID(ctx, db, "100"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("post should be gone, got %v", err)
	}
	tags, err := TagsOfPost(ctx, db, "100")
	if err != nil {
		t.Fatalf("TagsOfPost: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("dangling tag rows after delete: %v", tags)
	}

	if err := DeletePostWithTags(ctx, db, "u1", "100"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestPostsStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, maxUpdated, err := PostsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("PostsStats empty: %v", err)
	}
	if count != 0 || maxUpdated != nil {
		t.Fatalf("empty stats = (%d, %v)", count, maxUpdated)
	}

	for _, id := range []string{"100", "200"} {
		p := &domain.Post{UserID: "u1", ID: id, Title: "t", Content: "c"}
		if err := CreatePostWithTags(ctx, db, p, nil); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	count, maxUpdated, err = PostsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("PostsStats: %v", err)
	}
	if count != 2 || maxUpdated == nil || maxUpdated.IsZero() {
		t.Fatalf("stats = (%d, %v)", count, maxUpdated)
	}
}
