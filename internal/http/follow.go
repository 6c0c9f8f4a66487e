package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/internal/service"
)

func (h *Handler) followIndex(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	p, err := h.feed.Following(c.Request.Context(), user, page(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "follow", gin.H{
		"Page":   p,
		"Images": h.imageURLs(c, p.Posts...),
	})
}

func (h *Handler) profileFollow(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	username := c.Param("username")
	if _, _, err := h.follows.Follow(c.Request.Context(), user, username); err != nil && !errors.Is(err, service.ErrForbidden) {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *Handler) profileUnfollow(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	username := c.Param("username")
	if _, err := h.follows.Unfollow(c.Request.Context(), user, username); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}
