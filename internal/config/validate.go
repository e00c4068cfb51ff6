package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

var (
	vOnce  sync.Once
	vValid *validator.Validate
	vTrans ut.Translator
)

// validate returns the shared validator with english messages and yaml field names
func validate() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// report yaml keys rather than Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("yaml")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
			_, ok := api.ParseDifficulty(fl.Field().String())
			return ok
		})
		_ = v.RegisterTranslation("difficulty", trans,
			func(ut ut.Translator) error {
				return ut.Add("difficulty", "{0} must be one of BEGINNER, EASY, MEDIUM, HARD, EXPERT", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, _ := ut.T("difficulty", fe.Field())
				return msg
			},
		)

		vValid, vTrans = v, trans
	})
	return vValid, vTrans
}

// Validate checks field values against their constraints and reports the
// first violation by its yaml path (e.g. "endpoint.base_url")
func (c *Config) Validate() error {
	v, trans := validate()

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid %s: %s", fieldPath(fe.Namespace()), fe.Translate(trans))
	}
	return fmt.Errorf("invalid config: %w", err)
}

// fieldPath strips the root struct name from a validator namespace
func fieldPath(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
