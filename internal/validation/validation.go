package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNameEmpty      = errors.New("name must not be empty")
	ErrNameTooLong    = errors.New("name must be at most 100 characters")
	ErrPhoneFormat    = errors.New("phone must contain at least 9 digits")
	ErrDateFormat     = errors.New("date must be in YYYY-MM-DD format")
	ErrFutureDate     = errors.New("birthday must not be in the future")
	ErrNotWholeNumber = errors.New("only whole numbers are accepted")
)

// phonePattern allows an optional leading +, then digits with spaces,
// hyphens and parentheses mixed in.
var phonePattern = regexp.MustCompile(`^\+?[0-9()\s-]+$`)

type ClientInfo struct {
	Name     string     `validate:"required,max=100"`
	Phone    string     `validate:"omitempty,phone"`
	Birthday *time.Time `validate:"omitempty,pastdate"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneValid(fl.Field().String())
	})
	v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !d.After(time.Now())
	})
	return v
}

// ValidateClient re-checks the collected client block as a whole before
// commit; per-step parsing should already have rejected bad values.
func ValidateClient(c ClientInfo) error {
	return validate.Struct(c)
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

func phoneValid(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 9
}

func ParsePhone(input string) (string, error) {
	phone := strings.TrimSpace(input)
	if !phoneValid(phone) {
		return "", ErrPhoneFormat
	}
	return phone, nil
}

func ParseBirthday(input string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(input))
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	if d.After(time.Now()) {
		return time.Time{}, ErrFutureDate
	}
	return d, nil
}

// ParseAmount parses a whole-number currency amount. Fractional input is
// rejected, never rounded.
func ParseAmount(input string) (int64, error) {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, " ", "")
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrNotWholeNumber
	}
	return amount, nil
}
