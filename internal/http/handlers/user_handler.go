// User HTTP handlers.
//
// This file exposes REST endpoints for accounts and sessions:
//   - POST   /users/signup    (register, returns profile + token)
//   - POST   /users/signin    (verify credentials, rotate session)
//   - POST   /users/signout   (invalidate the active session)
//   - GET    /users/me        (profile of the authenticated user)
//   - PATCH  /users/me        (partial profile update)
//
// Handlers are transport-thin: they validate input shape, call application
// services, and translate results into HTTP responses. It also hosts the
// service contracts and the Handlers aggregate shared by every endpoint
// file in this package.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// UserService defines the account operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the context.
type UserService interface {
	SignUp(ctx context.Context, name, email, password string, tags []string) (*services.UserProfile, error)
	SignIn(ctx context.Context, email, password string) (*services.UserProfile, error)
	SignOut(ctx context.Context, email, password string) error
	Get(ctx context.Context, userID string) (*services.UserProfile, error)
	Update(ctx context.Context, userID string, name, password *string, tags []string) error
}

// PostService defines the post lifecycle operations consumed by handlers.
type PostService interface {
	Create(ctx context.Context, userID, title, content string, tags []string, idemKey string) (*services.PostDetail, error)
	Get(ctx context.Context, postID string) (*services.PostDetail, error)
	ListByUser(ctx context.Context, userID string) ([]services.PostSummary, error)
	Update(ctx context.Context, userID, postID string, title, content *string, tags []string) error
	Delete(ctx context.Context, userID, postID string) error
}

// CommentService defines the comment operations consumed by handlers.
type CommentService interface {
	Create(ctx context.Context, userID, postID, content, replyTo string) (*services.CommentDetail, error)
	ListForPost(ctx context.Context, postID string) ([]services.CommentThread, error)
	Update(ctx context.Context, userID, commentID string, content *string) error
	Delete(ctx context.Context, userID, commentID string) error
}

// FeedService assembles the personalized feed for the authenticated user.
type FeedService interface {
	Assemble(ctx context.Context, userID, cursor string) (*services.FeedPage, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for users, posts, comments, and the
// feed. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	userSvc    UserService
	postSvc    PostService
	commentSvc CommentService
	feedSvc    FeedService
}

// New constructs a Handlers instance bound to the given services.
func New(userSvc UserService, postSvc PostService, commentSvc CommentService, feedSvc FeedService) *Handlers {
	return &Handlers{userSvc: userSvc, postSvc: postSvc, commentSvc: commentSvc, feedSvc: feedSvc}
}

// userID returns the authenticated user ID set by the auth middleware.
func userID(c *gin.Context) string {
	return middleware.UserIDFrom(c)
}

//
// DTOs
//

// SignUpRequest is the JSON payload for registration.
type SignUpRequest struct {
	Name     string   `json:"name" binding:"required" example:"Ada Lovelace"`
	Email    string   `json:"email" binding:"required" example:"ada@example.com"`
	Password string   `json:"password" binding:"required" example:"Str0ng!pass"`
	Tags     []string `json:"tags" binding:"required" example:"golang,databases"`
}

// CredentialsRequest is the JSON payload for sign-in and sign-out.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"Str0ng!pass"`
}

// UpdateUserRequest is the JSON payload for PATCH /users/me. Absent fields
// are left untouched.
type UpdateUserRequest struct {
	Name     *string  `json:"name,omitempty" example:"Ada Lovelace"`
	Password *string  `json:"password,omitempty" example:"N3w!passwd"`
	Tags     []string `json:"tags,omitempty" example:"golang,sqlite"`
}

//
// Handlers
//

// SignUp godoc
// @ID          signUp
// @Summary     Register a new account
// @Description Creates an account and returns the profile with a session token.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SignUpRequest  true  "Registration payload"
//
// @Success     201  {object}  services.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Router      /users/signup [post]
func (h *Handlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	profile, err := h.userSvc.SignUp(c.Request.Context(), req.Name, req.Email, req.Password, req.Tags)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			fail(c, http.StatusConflict, ErrCodeEmailTaken, err.Error())
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	ok(c, http.StatusCreated, profile)
}

// SignIn godoc
// @ID          signIn
// @Summary     Sign in
// @Description Verifies credentials and rotates the session token.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     200  {object}  services.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad credentials"
// @Router      /users/signin [post]
func (h *Handlers) SignIn(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	profile, err := h.userSvc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// One answer for both unknown email and wrong password.
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrWrongPassword) {
			fail(c, http.StatusUnauthorized, ErrCodeBadCredentials, "invalid email or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, profile)
}

// SignOut godoc
// @ID          signOut
// @Summary     Sign out
// @Description Invalidates the active session; previously issued tokens stop authenticating.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad credentials"
// @Router      /users/signout [post]
func (h *Handlers) SignOut(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.userSvc.SignOut(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrWrongPassword) {
			fail(c, http.StatusUnauthorized, ErrCodeBadCredentials, "invalid email or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// GetMe godoc
// @ID          getMe
// @Summary     Current user profile
// @Description Returns the authenticated user's profile with the decoded creation time.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.UserProfile
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	profile, err := h.userSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, profile)
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update profile
// @Description Applies a partial update to the authenticated user's profile.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.UpdateUserRequest  true  "Fields to update"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /users/me [patch]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.userSvc.Update(c.Request.Context(), userID(c), req.Name, req.Password, req.Tags); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	noContent(c)
}
