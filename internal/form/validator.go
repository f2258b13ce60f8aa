// Package form binds submitted HTML form values to per-entity form structs
// and validates them.
//
// Validation is declarative: each form struct carries `validate` tags that
// github.com/go-playground/validator/v10 checks, and the resulting field
// errors are translated into the request's language (Japanese or English).
// The outcome is an Errors map of field name → message; an empty map means
// the form is valid and can be applied to the entity.
package form

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ja"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	ja_translations "github.com/go-playground/validator/v10/translations/ja"
	"golang.org/x/text/language"
)

// Errors maps a form field name (its `form` tag) to a human-readable message.
type Errors map[string]string

// Valid reports whether no field failed validation.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Get returns the message for field, or "" if the field is valid.
// Templates call it as {{.Errors.Get "title"}}.
func (e Errors) Get(field string) string {
	return e[field]
}

// Validator validates form structs and translates their errors.
// It is safe for concurrent use once constructed.
type Validator struct {
	validate      *validator.Validate
	uni           *ut.UniversalTranslator
	defaultLocale string
}

// NewValidator creates a Validator whose messages default to defaultLocale
// ("ja" or "en") when the request does not ask for a supported language.
func NewValidator(defaultLocale string) (*Validator, error) {
	validate := validator.New()

	// Report fields by their form tag ("title") rather than the Go field
	// name ("Title") so errors line up with the HTML inputs.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("username", validUsername); err != nil {
		return nil, err
	}

	jaLocale, enLocale := ja.New(), en.New()
	uni := ut.New(enLocale, enLocale, jaLocale)

	jaTrans, _ := uni.GetTranslator("ja")
	if err := ja_translations.RegisterDefaultTranslations(validate, jaTrans); err != nil {
		return nil, err
	}
	enTrans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerMessage(validate, jaTrans, "username",
		"{0}には英数字と @/./+/-/_ のみ使用できます"); err != nil {
		return nil, err
	}
	if err := registerMessage(validate, enTrans, "username",
		"{0} may contain only letters, digits and @/./+/-/_"); err != nil {
		return nil, err
	}

	if _, ok := uni.GetTranslator(defaultLocale); !ok {
		defaultLocale = "en"
	}

	return &Validator{
		validate:      validate,
		uni:           uni,
		defaultLocale: defaultLocale,
	}, nil
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func validUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

// registerMessage adds a translation for a custom validation tag.
func registerMessage(v *validator.Validate, trans ut.Translator, tag, text string) error {
	return v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
}

// Validate checks the form struct s and returns its field errors translated
// into the first supported language in langs (falling back to the default).
func (v *Validator) Validate(s any, langs ...string) Errors {
	err := v.validate.Struct(s)
	if err == nil {
		return Errors{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError means a non-struct was passed: a programming error.
		panic(err)
	}

	trans := v.translator(langs)
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}

func (v *Validator) translator(langs []string) ut.Translator {
	candidates := append(append([]string{}, langs...), v.defaultLocale)
	trans, _ := v.uni.FindTranslator(candidates...)
	return trans
}

// ParseAcceptLanguage turns an Accept-Language header into locale names in
// preference order, e.g. "ja-JP,en;q=0.8" → ["ja_JP", "ja", "en"].
// Each regional tag is followed by its base language so "en-GB" still finds
// the "en" translator. A malformed header yields nil.
func ParseAcceptLanguage(header string) []string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}

	var langs []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			langs = append(langs, name)
		}
	}
	for _, tag := range tags {
		// "*" parses as "mul" (multiple languages).
		if tag == language.Und || tag.String() == "mul" {
			continue
		}
		add(strings.ReplaceAll(tag.String(), "-", "_"))
		if base, conf := tag.Base(); conf != language.No {
			add(base.String())
		}
	}
	return langs
}

type langsKey struct{}

// WithLanguages returns a copy of ctx carrying the caller's preferred locales.
func WithLanguages(ctx context.Context, langs []string) context.Context {
	return context.WithValue(ctx, langsKey{}, langs)
}

// LanguagesFromContext returns the locales stored by WithLanguages, or nil.
func LanguagesFromContext(ctx context.Context) []string {
	langs, _ := ctx.Value(langsKey{}).([]string)
	return langs
}
