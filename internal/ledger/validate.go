package ledger

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/model"
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("amount", validateAmount)
	return v
}

func validateCategory(fl validator.FieldLevel) bool {
	_, ok := model.ParseCategory(fl.Field().String())
	return ok
}

// validateAmount accepts decimals greater than zero.
func validateAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	return err == nil && d.IsPositive()
}

var tagMessages = map[string]string{
	"datetime": "Date must be in YYYY-MM-DD format",
	"amount":   "Amount must be a number greater than zero",
	"category": "Category must be one of Grocery, Cosmetics, Clothes, Miscellaneous",
	"email":    "Invalid email address",
	"eqfield":  "Passwords do not match",
	"min":      "Password must be at least 6 characters",
}

// check runs struct validation and turns the first failure into a
// validation AppError. Missing fields win over malformed ones.
func check(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.ErrValidation, err)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return apperr.Wrap(apperr.ErrValidation, err)
		}
	}
	msg, ok := tagMessages[verrs[0].Tag()]
	if !ok {
		msg = verrs[0].Field() + " is invalid"
	}
	return apperr.Wrap(apperr.WithMessage(apperr.ErrValidation, msg), err)
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
