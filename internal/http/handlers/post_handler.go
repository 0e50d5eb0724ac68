// Post HTTP handlers.
//
// This file exposes REST endpoints for post resources:
//   - POST   /posts        (create, Idempotency-Key aware)
//   - GET    /posts        (the caller's posts, weak ETag support)
//   - GET    /posts/{id}   (single post with tags)
//   - PATCH  /posts/{id}   (partial update, optional retag)
//   - DELETE /posts/{id}   (remove post and its tag rows)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/repo"
	"github.com/tbourn/go-blog-backend/internal/services"
)

//
// DTOs
//

// CreatePostRequest is the JSON payload for creating a post.
type CreatePostRequest struct {
	Title   string   `json:"title" binding:"required" example:"Cursor pagination in practice"`
	Content string   `json:"content" binding:"required" example:"Offsets break under concurrent writes..."`
	Tags    []string `json:"tags" binding:"required" example:"golang,databases"`
}

// UpdatePostRequest is the JSON payload for PATCH /posts/{id}. Absent fields
// are left untouched; providing tags replaces the whole tag set.
type UpdatePostRequest struct {
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// ListPostsResponse wraps the caller's posts.
type ListPostsResponse struct {
	Posts []services.PostSummary `json:"posts"`
}

//
// Handlers
//

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Creates a post with its tags atomically. Supply an Idempotency-Key header to make retries safe.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Retry deduplication key"
// @Param       body             body    handlers.CreatePostRequest  true  "Create post payload"
//
// @Success     200  {object}  services.PostDetail  "Replayed prior result"
// @Success     201  {object}  services.PostDetail
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	idemKey, _ := middleware.GetIdempotencyKey(c)

	detail, err := h.postSvc.Create(c.Request.Context(), userID(c), req.Title, req.Content, req.Tags, idemKey)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	status := http.StatusCreated
	if detail.Replayed {
		status = http.StatusOK
	}
	ok(c, status, detail)
}

// ListMyPosts godoc
// @ID          listMyPosts
// @Summary     List own posts
// @Description Returns every post authored by the caller, newest first. Supports weak ETag via If-None-Match.
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.ListPostsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts [get]
func (h *Handlers) ListMyPosts(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.postSvc.(*services.PostService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.PostsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"posts:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	posts, err := h.postSvc.ListByUser(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListPostsResponse{Posts: posts})
}

// GetPost godoc
// @ID          getPost
// @Summary     Fetch a post
// @Description Returns a single post joined with its tags and decoded creation time.
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Post ID"
//
// @Success     200  {object}  services.PostDetail
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	detail, err := h.postSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, detail)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Update a post
// @Description Applies a partial update to a post the caller owns. Providing tags replaces the tag set atomically.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Post ID"
// @Param       body  body  handlers.UpdatePostRequest  true  "Fields to update"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [patch]
func (h *Handlers) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.postSvc.Update(c.Request.Context(), userID(c), c.Param("id"), req.Title, req.Content, req.Tags)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	noContent(c)
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Description Removes a post the caller owns together with its tag rows.
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Post ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	err := h.postSvc.Delete(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
