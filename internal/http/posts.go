package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/internal/domain"
	"yatube/internal/service"
)

func (h *Handler) index(c *gin.Context) {
	p, err := h.feed.Global(c.Request.Context(), page(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "index", gin.H{
		"Page":   p,
		"Images": h.imageURLs(c, p.Posts...),
	})
}

func (h *Handler) groupPosts(c *gin.Context) {
	feed, err := h.feed.Group(c.Request.Context(), c.Param("slug"), page(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "group_list", gin.H{
		"Group":  feed.Group,
		"Page":   feed.Page,
		"Images": h.imageURLs(c, feed.Page.Posts...),
	})
}

func (h *Handler) profile(c *gin.Context) {
	feed, err := h.feed.Profile(c.Request.Context(), currentUser(c), c.Param("username"), page(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "profile", gin.H{
		"Author":    feed.Author,
		"Page":      feed.Page,
		"PostCount": feed.PostCount,
		"Following": feed.Following,
		"Images":    h.imageURLs(c, feed.Page.Posts...),
	})
}

func (h *Handler) postDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return
	}
	h.renderDetail(c, http.StatusOK, id, "", service.FieldErrors{})
}

func (h *Handler) renderDetail(c *gin.Context, status int, id int64, commentText string, errs service.FieldErrors) {
	detail, err := h.feed.PostDetail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, status, "post_detail", gin.H{
		"Post":            detail.Post,
		"AuthorPostCount": detail.AuthorPostCount,
		"Comments":        detail.Comments,
		"CanEdit":         service.CanEditPost(currentUser(c), detail.Post),
		"Image":           h.imageURLs(c, *detail.Post)[detail.Post.ID],
		"CommentText":     commentText,
		"Errors":          errs,
	})
}

func (h *Handler) createForm(c *gin.Context) {
	if _, ok := h.requireUser(c); !ok {
		return
	}
	h.renderPostForm(c, http.StatusOK, &postForm{}, service.FieldErrors{}, 0)
}

func (h *Handler) createPost(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	form := &postForm{}
	if errs := bindForm(c, form); len(errs) > 0 {
		h.renderPostForm(c, http.StatusOK, form, errs, 0)
		return
	}
	in, closeUpload, err := postInput(c, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeUpload()

	if _, err := h.posts.Create(c.Request.Context(), user, in); err != nil {
		if errs, ok := service.AsFieldErrors(err); ok {
			h.renderPostForm(c, http.StatusOK, form, errs, 0)
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

func (h *Handler) editForm(c *gin.Context) {
	post, ok := h.editablePost(c)
	if !ok {
		return
	}
	form := &postForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = formatID(*post.GroupID)
	}
	h.renderPostForm(c, http.StatusOK, form, service.FieldErrors{}, post.ID)
}

func (h *Handler) editPost(c *gin.Context) {
	post, ok := h.editablePost(c)
	if !ok {
		return
	}

	form := &postForm{}
	if errs := bindForm(c, form); len(errs) > 0 {
		h.renderPostForm(c, http.StatusOK, form, errs, post.ID)
		return
	}
	in, closeUpload, err := postInput(c, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeUpload()

	if _, err := h.posts.Edit(c.Request.Context(), currentUser(c), post.ID, in); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.Redirect(http.StatusFound, detailURL(post.ID))
			return
		}
		if errs, ok := service.AsFieldErrors(err); ok {
			h.renderPostForm(c, http.StatusOK, form, errs, post.ID)
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(post.ID))
}

// editablePost loads the post named in the URL. Anonymous users go to
// login; everyone except the author goes to the detail view.
func (h *Handler) editablePost(c *gin.Context) (*domain.Post, bool) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return nil, false
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	user, ok := h.requireUser(c)
	if !ok {
		return nil, false
	}
	if !service.CanEditPost(user, post) {
		c.Redirect(http.StatusFound, detailURL(post.ID))
		return nil, false
	}
	return post, true
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return
	}
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), user, id); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.Redirect(http.StatusFound, detailURL(id))
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

func (h *Handler) addComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.notFound(c)
		return
	}
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	if c.Request.Method != http.MethodPost {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}

	form := &commentForm{}
	if errs := bindForm(c, form); len(errs) > 0 {
		h.renderDetail(c, http.StatusOK, id, form.Text, errs)
		return
	}
	if _, err := h.posts.AddComment(c.Request.Context(), user, id, form.Text); err != nil {
		if errs, ok := service.AsFieldErrors(err); ok {
			h.renderDetail(c, http.StatusOK, id, form.Text, errs)
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(id))
}

func (h *Handler) renderPostForm(c *gin.Context, status int, form *postForm, errs service.FieldErrors, editID int64) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, status, "create_post", gin.H{
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
		"IsEdit": editID != 0,
		"PostID": editID,
	})
}

// postInput combines a validated form with the optional upload.
func postInput(c *gin.Context, form *postForm) (service.PostInput, func(), error) {
	groupID, _ := form.groupID()
	in := service.PostInput{Text: form.Text, GroupID: groupID}

	upload, file, err := imageUpload(c)
	if err != nil {
		return in, func() {}, err
	}
	if upload == nil {
		return in, func() {}, nil
	}
	in.Image = upload
	return in, func() { file.Close() }, nil
}
