// Comment HTTP handlers.
//
// This file exposes REST endpoints for comment resources:
//   - POST   /posts/{id}/comments   (create, optionally replying)
//   - GET    /posts/{id}/comments   (list grouped one reply level deep)
//   - PATCH  /comments/{id}         (edit own comment)
//   - DELETE /comments/{id}         (remove own comment)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/services"
)

// CreateCommentRequest is the JSON payload for commenting on a post.
// ReplyTo optionally names an existing comment on the same post.
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required" example:"Great write-up."`
	ReplyTo string `json:"reply_to,omitempty"`
}

// UpdateCommentRequest is the JSON payload for PATCH /comments/{id}.
type UpdateCommentRequest struct {
	Content *string `json:"content,omitempty"`
}

// ListCommentsResponse wraps a post's comment threads.
type ListCommentsResponse struct {
	Comments []services.CommentThread `json:"comments"`
}

// CreateComment godoc
// @ID          createComment
// @Summary     Comment on a post
// @Description Adds a comment, optionally as a reply to an existing comment on the same post.
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Post ID"
// @Param       body  body  handlers.CreateCommentRequest  true  "Comment payload"
//
// @Success     201  {object}  services.CommentDetail
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post or reply target not found"
// @Router      /posts/{id}/comments [post]
func (h *Handlers) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	detail, err := h.commentSvc.Create(c.Request.Context(), userID(c), c.Param("id"), req.Content, req.ReplyTo)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case errors.Is(err, services.ErrCommentNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "reply target not found")
		default:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, detail)
}

// ListComments godoc
// @ID          listComments
// @Summary     List a post's comments
// @Description Returns the post's comments grouped one reply level deep, oldest first.
// @Tags        Comments
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Post ID"
//
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	threads, err := h.commentSvc.ListForPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListCommentsResponse{Comments: threads})
}

// UpdateComment godoc
// @ID          updateComment
// @Summary     Edit a comment
// @Description Changes the content of a comment the caller authored.
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Comment ID"
// @Param       body  body  handlers.UpdateCommentRequest  true  "New content"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Comment not found"
// @Router      /comments/{id} [patch]
func (h *Handlers) UpdateComment(c *gin.Context) {
	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.commentSvc.Update(c.Request.Context(), userID(c), c.Param("id"), req.Content)
	if err != nil {
		if errors.Is(err, services.ErrCommentNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	noContent(c)
}

// DeleteComment godoc
// @ID          deleteComment
// @Summary     Delete a comment
// @Description Removes a comment the caller authored. Replies to it stay and surface at the top level.
// @Tags        Comments
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Comment ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Comment not found"
// @Router      /comments/{id} [delete]
func (h *Handlers) DeleteComment(c *gin.Context) {
	err := h.commentSvc.Delete(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCommentNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
