package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"yatube/internal/service"
)

// Validator is implemented by every submitted form.
type Validator interface {
	Validate() service.FieldErrors
}

// bindForm decodes the request into form and validates it. The result is
// empty when the form is usable.
func bindForm(c *gin.Context, form Validator) service.FieldErrors {
	if err := c.ShouldBind(form); err != nil {
		return service.FieldErrors{"form": "could not read the submitted form"}
	}
	errs := form.Validate()
	if errs == nil {
		errs = service.FieldErrors{}
	}
	return errs
}

type postForm struct {
	Text  string `form:"text"`
	Group string `form:"group"`
}

func (f *postForm) Validate() service.FieldErrors {
	errs := service.FieldErrors{}
	if strings.TrimSpace(f.Text) == "" {
		errs["text"] = "post text is required"
	}
	if _, err := f.groupID(); err != nil {
		errs["group"] = "select a valid group"
	}
	return errs
}

func (f *postForm) groupID() (*int64, error) {
	raw := strings.TrimSpace(f.Group)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New("invalid group id")
	}
	return &id, nil
}

type commentForm struct {
	Text string `form:"text"`
}

func (f *commentForm) Validate() service.FieldErrors {
	if strings.TrimSpace(f.Text) == "" {
		return service.FieldErrors{"text": "comment text is required"}
	}
	return nil
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

func (f *loginForm) Validate() service.FieldErrors {
	errs := service.FieldErrors{}
	if strings.TrimSpace(f.Username) == "" {
		errs["username"] = "username is required"
	}
	if f.Password == "" {
		errs["password"] = "password is required"
	}
	return errs
}

type signupForm struct {
	Username  string `form:"username"`
	Password1 string `form:"password1"`
	Password2 string `form:"password2"`
}

func (f *signupForm) Validate() service.FieldErrors {
	errs := service.FieldErrors{}
	if strings.TrimSpace(f.Username) == "" {
		errs["username"] = "username is required"
	}
	if f.Password1 == "" {
		errs["password1"] = "password is required"
	}
	if f.Password1 != f.Password2 {
		errs["password2"] = "the two password fields didn't match"
	}
	return errs
}

// imageUpload returns the optional "image" file of a multipart form. The
// caller closes the returned file.
func imageUpload(c *gin.Context) (*service.Upload, multipart.File, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if header.Size == 0 {
		return nil, nil, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{Filename: header.Filename, Body: f}, f, nil
}
