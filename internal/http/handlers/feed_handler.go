// Feed HTTP handler.
//
// GET /feed returns one page of the authenticated user's personalized feed:
// recent posts carrying any of the user's subscribed tags, newest first,
// joined with tags and comments. Pagination is cursor-based; the cursor
// returned on a full page is passed back verbatim to fetch the next one.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/services"
)

// GetFeed godoc
// @ID          getFeed
// @Summary     Personalized feed
// @Description Returns one feed page for the authenticated user. An empty page is a valid feed, not an error.
// @Tags        Feed
// @Produce     json
// @Security    BearerAuth
//
// @Param       cursor  query  string  false  "Post ID of the last entry of the previous page; omit or pass 'null' for the first page"
//
// @Success     200  {object}  services.FeedPage
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed cursor"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feed [get]
func (h *Handlers) GetFeed(c *gin.Context) {
	cursor := strings.TrimSpace(c.Query("cursor"))

	page, err := h.feedSvc.Assemble(c.Request.Context(), userID(c), cursor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadCursor):
			fail(c, http.StatusBadRequest, ErrCodeBadCursor, "cursor must be a post id or 'null'")
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeFeedFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, page)
}
