package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yatube/internal/cache"
	"yatube/internal/repository"
	"yatube/internal/service"
)

// Handler exposes the registry and operator actions as a JSON API.
type Handler struct {
	registry *Registry
	groups   service.GroupService
	cache    cache.Store
	logger   *logrus.Logger
}

func NewHandler(registry *Registry, groups service.GroupService, pageCache cache.Store, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		registry: registry,
		groups:   groups,
		cache:    pageCache,
		logger:   logger,
	}
}

// RegisterRoutes mounts the admin API on r, normally a basic-auth group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.listModels)
	r.GET("/:model/", h.listRows)
	r.POST("/group/", h.createGroup)
	r.POST("/post/:id/", h.updatePost)
	r.POST("/cache/clear", h.clearCache)
}

type createGroupRequest struct {
	Title       string `json:"title" form:"title" binding:"required"`
	Slug        string `json:"slug" form:"slug" binding:"required"`
	Description string `json:"description" form:"description"`
}

type updatePostRequest struct {
	// Group is a group id; empty detaches the post.
	Group string `json:"group" form:"group"`
}

type ModelResponse struct {
	Name         string   `json:"name"`
	ListDisplay  []string `json:"list_display"`
	ListEditable []string `json:"list_editable,omitempty"`
	SearchFields []string `json:"search_fields,omitempty"`
	ListFilter   []string `json:"list_filter,omitempty"`
}

type RowsResponse struct {
	Model    string   `json:"model"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	NumPages int      `json:"num_pages"`
}

func (h *Handler) listModels(c *gin.Context) {
	names := h.registry.Names()
	resp := make([]ModelResponse, 0, len(names))
	for _, name := range names {
		m, _ := h.registry.Get(name)
		resp = append(resp, ModelResponse{
			Name:         m.Name,
			ListDisplay:  m.ListDisplay,
			ListEditable: m.ListEditable,
			SearchFields: m.SearchFields,
			ListFilter:   m.ListFilter,
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": resp})
}

func (h *Handler) listRows(c *gin.Context) {
	m, ok := h.registry.Get(c.Param("model"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown model"})
		return
	}

	q := Query{
		Search:  c.Query("q"),
		Filters: map[string]string{},
		Page:    service.PageNumber(c.Query("page")),
	}
	for _, f := range m.ListFilter {
		if v, ok := c.GetQuery(f); ok {
			q.Filters[f] = v
		}
	}

	res, err := m.List(c.Request.Context(), q)
	if errors.Is(err, ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("model", m.Name).Error("admin list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, RowsResponse{
		Model:    m.Name,
		Columns:  m.ListDisplay,
		Rows:     res.Rows,
		Total:    res.Total,
		Page:     res.Page,
		NumPages: res.NumPages,
	})
}

func (h *Handler) createGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.Create(c.Request.Context(), req.Title, req.Slug, req.Description)
	if err != nil {
		if fields, ok := service.AsFieldErrors(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
			return
		}
		switch {
		case errors.Is(err, service.ErrInvalidSlug):
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"slug": err.Error()}})
		case errors.Is(err, repository.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"errors": gin.H{"slug": "a group with this slug already exists"}})
		default:
			h.logger.WithError(err).Error("admin create group failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"pk":          group.ID,
		"title":       group.Title,
		"slug":        group.Slug,
		"description": group.Description,
	})
}

// updatePost changes the list_editable column of the post listing.
func (h *Handler) updatePost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	var req updatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var groupID *int64
	if raw := strings.TrimSpace(req.Group); raw != "" {
		gid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"group": "invalid group id"}})
			return
		}
		groupID = &gid
	}

	post, err := h.groups.SetPostGroup(c.Request.Context(), id, groupID)
	if err != nil {
		if fields, ok := service.AsFieldErrors(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("admin update post failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"pk": post.ID, "group": nil}
	if post.Group != nil {
		resp["group"] = post.Group.Slug
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) clearCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"cleared": false})
		return
	}
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("admin cache clear failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("page cache cleared")
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
