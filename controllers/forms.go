package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cppla/yatube/services"
)

type postForm struct {
	Text       string `form:"text" binding:"required"`
	Group      string `form:"group" binding:"omitempty,numeric"`
	ImageClear string `form:"image_clear"`
}

// groupID returns nil for "no group".
func (f postForm) groupID() *uint {
	id, ok := parseID(f.Group)
	if !ok {
		return nil
	}
	return &id
}

// postFormView is what the post form template reads back.
type postFormView struct {
	Text  string
	Group uint
}

func (f postForm) view() postFormView {
	v := postFormView{Text: f.Text}
	if id := f.groupID(); id != nil {
		v.Group = *id
	}
	return v
}

type commentForm struct {
	Text string `form:"text" binding:"required,max=300"`
}

type loginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Next     string `form:"next" json:"-"`
}

type signupForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Email     string `form:"email" binding:"omitempty,email,max=255"`
	Password  string `form:"password" binding:"required,min=8"`
	CaptchaID string `form:"captcha_id"`
	Captcha   string `form:"captcha"`
}

var registerFormNames sync.Once

// useFormFieldNames makes validator report fields by their form tag, matching the template field names.
func useFormFieldNames() {
	registerFormNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
}

// bindForm binds the request into form and returns field messages for any
// validation failures. Malformed bodies are reported under "__all__".
func bindForm(ctx *gin.Context, form interface{}) map[string]string {
	useFormFieldNames()
	err := ctx.ShouldBind(form)
	if err == nil {
		return nil
	}
	return fieldMessages(err)
}

func bindJSON(ctx *gin.Context, req interface{}) map[string]string {
	useFormFieldNames()
	err := ctx.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	return fieldMessages(err)
}

func fieldMessages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"__all__": "The submitted data could not be read."}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "numeric":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}

// validationFields extracts field messages from a service error.
func validationFields(err error) (map[string]string, bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
