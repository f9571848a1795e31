package server

import (
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once

// registerValidators adds the request tags used by the API. Length limits
// depend on the configured rules and are checked by the engine.
func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
			return isPrintableText(fl.Field().String())
		})
		_ = engine.RegisterValidation("freeword", func(fl validator.FieldLevel) bool {
			return isPrintableText(fl.Field().String())
		})
		_ = engine.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
			code := strings.TrimSpace(fl.Field().String())
			if len(code) != 6 {
				return false
			}
			for _, r := range code {
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					return false
				}
			}
			return true
		})
	})
}

// isPrintableText reports whether text has visible content and no control
// characters.
func isPrintableText(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, r := range text {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
