package form

import (
	"net/http"
	"strings"

	"github.com/sakif/snippetshare/internal/model"
)

// Field limits. Title and username lengths are counted in characters, not
// bytes, so a 128-character Japanese title is accepted.
const (
	MaxTitleLength    = 128
	MaxCodeLength     = 100000
	MaxCommentLength  = 10000
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt limit
)

// SnippetForm is the creation form: every user-editable snippet field.
type SnippetForm struct {
	Title       string `form:"title"       validate:"required,max=128"`
	Code        string `form:"code"        validate:"max=100000"`
	Description string `form:"description" validate:"max=100000"`
}

// BindSnippet reads the creation form from a parsed POST body.
// Title and description are trimmed; code is kept verbatim so leading
// indentation survives.
func BindSnippet(r *http.Request) SnippetForm {
	return SnippetForm{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Code:        r.PostFormValue("code"),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
}

// Apply copies the form onto s.
func (f SnippetForm) Apply(s *model.Snippet) {
	s.Title = f.Title
	s.Code = f.Code
	s.Description = f.Description
}

// SnippetEditForm is the edit form. It deliberately has no description
// field: editing a snippet only touches its title and code.
type SnippetEditForm struct {
	Title string `form:"title" validate:"required,max=128"`
	Code  string `form:"code"  validate:"max=100000"`
}

// BindSnippetEdit reads the edit form from a parsed POST body.
func BindSnippetEdit(r *http.Request) SnippetEditForm {
	return SnippetEditForm{
		Title: strings.TrimSpace(r.PostFormValue("title")),
		Code:  r.PostFormValue("code"),
	}
}

// SnippetEditFormFrom pre-fills the edit form with the snippet's current values.
func SnippetEditFormFrom(s *model.Snippet) SnippetEditForm {
	return SnippetEditForm{Title: s.Title, Code: s.Code}
}

// Apply copies title and code onto s and leaves every other field alone.
func (f SnippetEditForm) Apply(s *model.Snippet) {
	s.Title = f.Title
	s.Code = f.Code
}

// CommentForm is the comment creation form.
type CommentForm struct {
	Text string `form:"text" validate:"required,max=10000"`
}

func BindComment(r *http.Request) CommentForm {
	return CommentForm{Text: strings.TrimSpace(r.PostFormValue("text"))}
}

// LoginForm holds submitted credentials. Next is the local path to return
// to after a successful login; it is not validated here (see auth.SafeNext).
type LoginForm struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required,max=72"`
	Next     string `form:"-"`
}

func BindLogin(r *http.Request) LoginForm {
	return LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Next:     r.PostFormValue("next"),
	}
}

// UserForm is used by the admin console to create accounts.
type UserForm struct {
	Username string `form:"username" validate:"required,max=150,username"`
	Email    string `form:"email"    validate:"omitempty,email"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}
