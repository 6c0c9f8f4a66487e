package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yatube/internal/cache"
	"yatube/internal/domain"
	"yatube/internal/repository"
	"yatube/internal/service"
)

// ImageURLs resolves attachment keys into displayable URLs.
type ImageURLs interface {
	URL(ctx context.Context, key string) (string, error)
}

// Options collects the collaborators of the web boundary.
type Options struct {
	Users   service.UserService
	Posts   service.PostService
	Groups  service.GroupService
	Follows service.FollowService
	Feed    service.FeedService

	Images    ImageURLs
	PageCache cache.Store
	Sessions  *Sessions
	Renderer  Renderer
	Logger    *logrus.Logger

	LoginURL string
	// MediaDir is served under MediaURL when set (filesystem storage).
	MediaDir string
	MediaURL string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	posts    service.PostService
	groups   service.GroupService
	follows  service.FollowService
	feed     service.FeedService
	images   ImageURLs
	cache    cache.Store
	sessions *Sessions
	renderer Renderer
	logger   *logrus.Logger
	loginURL string
	mediaDir string
	mediaURL string
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	loginURL := opts.LoginURL
	if loginURL == "" {
		loginURL = "/auth/login/"
	}
	return &Handler{
		users:    opts.Users,
		posts:    opts.Posts,
		groups:   opts.Groups,
		follows:  opts.Follows,
		feed:     opts.Feed,
		images:   opts.Images,
		cache:    opts.PageCache,
		sessions: opts.Sessions,
		renderer: opts.Renderer,
		logger:   logger,
		loginURL: loginURL,
		mediaDir: opts.MediaDir,
		mediaURL: opts.MediaURL,
	}
}

// RegisterRoutes installs middleware and every public route on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), h.identify())

	router.GET("/", cachePage(h.cache), h.index)
	router.GET("/group/:slug/", h.groupPosts)
	router.GET("/profile/:username/", h.profile)
	router.GET("/posts/:id/", h.postDetail)

	router.GET("/create/", h.createForm)
	router.POST("/create/", h.createPost)
	router.GET("/posts/:id/edit/", h.editForm)
	router.POST("/posts/:id/edit/", h.editPost)
	router.POST("/posts/:id/delete/", h.deletePost)
	router.GET("/posts/:id/comment/", h.addComment)
	router.POST("/posts/:id/comment/", h.addComment)

	router.GET("/follow/", h.followIndex)
	router.GET("/profile/:username/follow/", h.profileFollow)
	router.POST("/profile/:username/follow/", h.profileFollow)
	router.GET("/profile/:username/unfollow/", h.profileUnfollow)
	router.POST("/profile/:username/unfollow/", h.profileUnfollow)

	auth := router.Group("/auth")
	{
		auth.GET("/signup/", h.signupForm)
		auth.POST("/signup/", h.signup)
		auth.GET("/login/", h.loginForm)
		auth.POST("/login/", h.login)
		auth.GET("/logout/", h.logout)
		auth.POST("/logout/", h.logout)
	}

	if h.mediaDir != "" && h.mediaURL != "" {
		router.Static(strings.TrimSuffix(h.mediaURL, "/"), h.mediaDir)
	}

	router.NoRoute(h.notFound)
}

func (h *Handler) notFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "error", gin.H{
		"Status":  http.StatusNotFound,
		"Message": "Page not found",
		"Path":    c.Request.URL.Path,
	})
	c.Abort()
}

// fail maps service errors onto responses.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.notFound(c)
	case errors.Is(err, service.ErrUnauthenticated):
		h.redirectToLogin(c)
	default:
		logEntry(c).WithError(err).Error("request failed")
		h.render(c, http.StatusInternalServerError, "error", gin.H{
			"Status":  http.StatusInternalServerError,
			"Message": "Something went wrong",
		})
		c.Abort()
	}
}

// requireUser redirects anonymous requests to login and reports whether
// the handler may continue.
func (h *Handler) requireUser(c *gin.Context) (*domain.User, bool) {
	user := currentUser(c)
	if user == nil {
		h.redirectToLogin(c)
		return nil, false
	}
	return user, true
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func page(c *gin.Context) int {
	return service.PageNumber(c.Query("page"))
}

// imageURLs resolves the images of posts keyed by post id. Failures are
// logged and the image is omitted.
func (h *Handler) imageURLs(c *gin.Context, posts ...domain.Post) map[int64]string {
	urls := make(map[int64]string)
	if h.images == nil {
		return urls
	}
	for _, p := range posts {
		if p.Image == "" {
			continue
		}
		u, err := h.images.URL(c.Request.Context(), p.Image)
		if err != nil {
			logEntry(c).WithError(err).WithField("image", p.Image).Warn("resolve image url")
			continue
		}
		urls[p.ID] = u
	}
	return urls
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func detailURL(id int64) string {
	return "/posts/" + formatID(id) + "/"
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
