package repo

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

func TestTagsOfPost_LexicalOrderAndEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &domain.Post{UserID: "u1", ID: "100", Title: "t", Content: "c"}
	if err := CreatePostWithTags(ctx, db, p, []string{"zulu", "alpha", "mike"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tags, err := TagsOfPost(ctx, db, "100")
	if err != nil {
		t.Fatalf("TagsOfPost: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"alpha", "mike", "zulu"}) {
		t.Fatalf("tags = %v", tags)
	}

	none, err := TagsOfPost(ctx, db, "999")
	if err != nil {
		t.Fatalf("TagsOfPost absent: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no tags, got %v", none)
	}
}

func TestPostIDsWithTag_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"100", "300", "200"} {
		p := &domain.Post{UserID: "u1", ID: id, Title: "t", Content: "c"}
		if err := CreatePostWithTags(ctx, db, p, []string{"golang"}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	ids, err := PostIDsWithTag(ctx, db, "golang", 0)
	if err != nil {
		t.Fatalf("PostIDsWithTag: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"300", "200", "100"}) {
		t.Fatalf("order = %v", ids)
	}

	limited, err := PostIDsWithTag(ctx, db, "golang", 2)
	if err != nil {
		t.Fatalf("PostIDsWithTag limited: %v", err)
	}
	if !reflect.DeepEqual(limited, []string{"300", "200"}) {
		t.Fatalf("limited = %v", limited)
	}
}

func TestPostIDsWithTag_ClampsToCap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// More rows than the per-tag cap; IDs are zero-padded to keep the
	// descending ORDER BY deterministic.
	for i := 0; i < MaxPostsPerTag+10; i++ {
		id := fmt.Sprintf("%06d", i)
		row := domain.Tag{Name: "popular", PostID: id}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	ids, err := PostIDsWithTag(ctx, db, "popular", MaxPostsPerTag*10)
	if err != nil {
		t.Fatalf("PostIDsWithTag: %v", err)
	}
	if len(ids) != MaxPostsPerTag {
		t.Fatalf("returned %d IDs, cap is %d", len(ids), MaxPostsPerTag)
	}
	if ids[0] != fmt.Sprintf("%06d", MaxPostsPerTag+9) {
		t.Fatalf("first ID = %s, want the newest", ids[0])
	}
}

func TestPostIDsWithTag_NormalizedLookupIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Tag rows are written post-normalization (lowercase), so a lookup with
	// the same normalization applied finds them regardless of request casing.
	p := &domain.Post{UserID: "u1", ID: "100", Title: "t", Content: "c"}
	if err := CreatePostWithTags(ctx, db, p, []string{"golang"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ids, err := PostIDsWithTag(ctx, db, "golang", 0)
	if err != nil || len(ids) != 1 {
		t.Fatalf("normalized lookup: ids=%v err=%v", ids, err)
	}
	miss, err := PostIDsWithTag(ctx, db, "GoLang", 0)
	if err != nil {
		t.Fatalf("unnormalized lookup: %v", err)
	}
	if len(miss) != 0 {
		t.Fatalf("raw-cased lookup must miss; callers normalize first: %v", miss)
	}
}
