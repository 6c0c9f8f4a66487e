package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/internal/service"
)

func (h *Handler) signupForm(c *gin.Context) {
	h.render(c, http.StatusOK, "signup", gin.H{
		"Form":   &signupForm{},
		"Errors": service.FieldErrors{},
	})
}

func (h *Handler) signup(c *gin.Context) {
	form := &signupForm{}
	errs := bindForm(c, form)
	if len(errs) == 0 {
		user, err := h.users.Register(c.Request.Context(), form.Username, form.Password1)
		switch {
		case err == nil:
			if err := h.startSession(c, user); err != nil {
				h.fail(c, err)
				return
			}
			c.Redirect(http.StatusFound, "/")
			return
		case errors.Is(err, service.ErrUserAlreadyExists):
			errs = service.FieldErrors{"username": "a user with that username already exists"}
		default:
			fields, ok := service.AsFieldErrors(err)
			if !ok {
				h.fail(c, err)
				return
			}
			errs = fields
			if msg, ok := errs["password"]; ok {
				delete(errs, "password")
				errs["password1"] = msg
			}
		}
	}
	h.render(c, http.StatusOK, "signup", gin.H{
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login", gin.H{
		"Form":   &loginForm{},
		"Errors": service.FieldErrors{},
		"Next":   c.Query("next"),
	})
}

func (h *Handler) login(c *gin.Context) {
	form := &loginForm{}
	errs := bindForm(c, form)
	if form.Next == "" {
		form.Next = c.Query("next")
	}
	if len(errs) == 0 {
		user, err := h.users.Authenticate(c.Request.Context(), form.Username, form.Password)
		switch {
		case err == nil:
			if err := h.startSession(c, user); err != nil {
				h.fail(c, err)
				return
			}
			c.Redirect(http.StatusFound, safeNext(form.Next))
			return
		case errors.Is(err, service.ErrInvalidCredentials):
			errs = service.FieldErrors{"form": "please enter a correct username and password"}
		default:
			h.fail(c, err)
			return
		}
	}
	h.render(c, http.StatusOK, "login", gin.H{
		"Form":   form,
		"Errors": errs,
		"Next":   form.Next,
	})
}

func (h *Handler) logout(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}
