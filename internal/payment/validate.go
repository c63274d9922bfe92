package payment

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var cryptoTypes = []string{"Bitcoin", "Ethereum", "Litecoin", "Dogecoin"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return isDigits(fl.Field().String())
	})
	_ = v.RegisterValidation("mmyy", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("01/06", fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("cryptotype", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, t := range cryptoTypes {
			if strings.EqualFold(t, s) {
				return true
			}
		}
		return false
	})
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// expiryEnd returns the first instant after the card's expiry month.
func expiryEnd(mmyy string) (time.Time, bool) {
	t, err := time.Parse("01/06", mmyy)
	if err != nil {
		return time.Time{}, false
	}
	return t.AddDate(0, 1, 0), true
}

func maskTail(s string, keep int) string {
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	return "****" + s[len(s)-keep:]
}
