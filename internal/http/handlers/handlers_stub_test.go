package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/services"
)

// ---------- flexible stubs; nil fields return permissive defaults ----------

type stubUserSvc struct {
	signUp  func(ctx context.Context, name, email, password string, tags []string) (*services.UserProfile, error)
	signIn  func(ctx context.Context, email, password string) (*services.UserProfile, error)
	signOut func(ctx context.Context, email, password string) error
	get     func(ctx context.Context, userID string) (*services.UserProfile, error)
	update  func(ctx context.Context, userID string, name, password *string, tags []string) error
}

func (s stubUserSvc) SignUp(ctx context.Context, name, email, password string, tags []string) (*services.UserProfile, error) {
	if s.signUp != nil {
		return s.signUp(ctx, name, email, password, tags)
	}
	return &services.UserProfile{Token: "tok"}, nil
}

func (s stubUserSvc) SignIn(ctx context.Context, email, password string) (*services.UserProfile, error) {
	if s.signIn != nil {
		return s.signIn(ctx, email, password)
	}
	return &services.UserProfile{Token: "tok"}, nil
}

func (s stubUserSvc) SignOut(ctx context.Context, email, password string) error {
	if s.signOut != nil {
		return s.signOut(ctx, email, password)
	}
	return nil
}

func (s stubUserSvc) Get(ctx context.Context, userID string) (*services.UserProfile, error) {
	if s.get != nil {
		return s.get(ctx, userID)
	}
	return &services.UserProfile{}, nil
}

func (s stubUserSvc) Update(ctx context.Context, userID string, name, password *string, tags []string) error {
	if s.update != nil {
		return s.update(ctx, userID, name, password, tags)
	}
	return nil
}

type stubPostSvc struct {
	create     func(ctx context.Context, userID, title, content string, tags []string, idemKey string) (*services.PostDetail, error)
	get        func(ctx context.Context, postID string) (*services.PostDetail, error)
	listByUser func(ctx context.Context, userID string) ([]services.PostSummary, error)
	update     func(ctx context.Context, userID, postID string, title, content *string, tags []string) error
	delete     func(ctx context.Context, userID, postID string) error
}

func (s stubPostSvc) Create(ctx context.Context, userID, title, content string, tags []string, idemKey string) (*services.PostDetail, error) {
	if s.create != nil {
		return s.create(ctx, userID, title, content, tags, idemKey)
	}
	return &services.PostDetail{}, nil
}

func (s stubPostSvc) Get(ctx context.Context, postID string) (*services.PostDetail, error) {
	if s.get != nil {
		return s.get(ctx, postID)
	}
	return &services.PostDetail{}, nil
}

func (s stubPostSvc) ListByUser(ctx context.Context, userID string) ([]services.PostSummary, error) {
	if s.listByUser != nil {
		return s.listByUser(ctx, userID)
	}
	return nil, nil
}

func (s stubPostSvc) Update(ctx context.Context, userID, postID string, title, content *string, tags []string) error {
	if s.update != nil {
		return s.update(ctx, userID, postID, title, content, tags)
	}
	return nil
}

func (s stubPostSvc) Delete(ctx context.Context, userID, postID string) error {
	if s.delete != nil {
		return s.delete(ctx, userID, postID)
	}
	return nil
}

type stubCommentSvc struct {
	create      func(ctx context.Context, userID, postID, content, replyTo string) (*services.CommentDetail, error)
	listForPost func(ctx context.Context, postID string) ([]services.CommentThread, error)
	update      func(ctx context.Context, userID, commentID string, content *string) error
	delete      func(ctx context.Context, userID, commentID string) error
}

func (s stubCommentSvc) Create(ctx context.Context, userID, postID, content, replyTo string) (*services.CommentDetail, error) {
	if s.create != nil {
		return s.create(ctx, userID, postID, content, replyTo)
	}
	return &services.CommentDetail{}, nil
}

func (s stubCommentSvc) ListForPost(ctx context.Context, postID string) ([]services.CommentThread, error) {
	if s.listForPost != nil {
		return s.listForPost(ctx, postID)
	}
	return nil, nil
}

func (s stubCommentSvc) Update(ctx context.Context, userID, commentID string, content *string) error {
	if s.update != nil {
		return s.update(ctx, userID, commentID, content)
	}
	return nil
}

func (s stubCommentSvc) Delete(ctx context.Context, userID, commentID string) error {
	if s.delete != nil {
		return s.delete(ctx, userID, commentID)
	}
	return nil
}

type stubFeedSvc struct {
	assemble func(ctx context.Context, userID, cursor string) (*services.FeedPage, error)
}

func (s stubFeedSvc) Assemble(ctx context.Context, userID, cursor string) (*services.FeedPage, error) {
	if s.assemble != nil {
		return s.assemble(ctx, userID, cursor)
	}
	return &services.FeedPage{Posts: []services.FeedPost{}}, nil
}

// ---------- router fixture ----------

// newHandlerRouter mounts the Handlers aggregate with an identity shim that
// plays the role of the auth middleware.
func newHandlerRouter(t *testing.T, h *Handlers, uid string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if uid != "" {
		r.Use(func(c *gin.Context) { c.Set("userID", uid); c.Next() })
	}

	r.POST("/users/signup", h.SignUp)
	r.POST("/users/signin", h.SignIn)
	r.POST("/users/signout", h.SignOut)
	r.GET("/users/me", h.GetMe)
	r.PATCH("/users/me", h.UpdateMe)

	r.POST("/posts", h.CreatePost)
	r.GET("/posts", h.ListMyPosts)
	r.GET("/posts/:id", h.GetPost)
	r.PATCH("/posts/:id", h.UpdatePost)
	r.DELETE("/posts/:id", h.DeletePost)

	r.POST("/posts/:id/comments", h.CreateComment)
	r.GET("/posts/:id/comments", h.ListComments)
	r.PATCH("/comments/:id", h.UpdateComment)
	r.DELETE("/comments/:id", h.DeleteComment)

	r.GET("/feed", h.GetFeed)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, body any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return &buf
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return resp.Code
}

func TestResponseHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/f", func(c *gin.Context) { fail(c, http.StatusTeapot, "teapot", "short and stout") })
	r.GET("/n", func(c *gin.Context) { noContent(c) })
	r.GET("/o", func(c *gin.Context) { ok(c, http.StatusOK, gin.H{"a": 1}) })

	w := doJSON(t, r, http.MethodGet, "/f", nil)
	if w.Code != http.StatusTeapot || errCode(t, w) != "teapot" {
		t.Fatalf("fail helper unexpected: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/n", nil)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent helper unexpected: %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/o", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"a":1}` {
		t.Fatalf("ok helper unexpected: %d %s", w.Code, w.Body.String())
	}
}
