package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for calendar dates such as a date of birth.
const DateLayout = "2006-01-02"

// MinAge is the youngest age allowed to hold an account.
const MinAge = 13

const passwordSpecials = "@$!%*?&"

var (
	personNameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	mobileRe     = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

var validate = newValidator()

// now is swapped by tests that need a fixed "today".
var now = time.Now

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobileRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil && !d.After(now())
	})
	_ = v.RegisterValidation("minage", func(fl validator.FieldLevel) bool {
		dob, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil && AgeOn(dob, now()) >= MinAge
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Struct validates s using its `validate` tags.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return fromValidator(ve)
		}
		return err
	}
	return nil
}

// Error carries one message per offending field, keyed by the json name.
type Error struct {
	fields map[string]string
	order  []string
}

// FieldError builds an Error for a single field; used for checks that need a
// backend round trip, like a duplicate email.
func FieldError(field, msg string) *Error {
	return &Error{fields: map[string]string{field: msg}, order: []string{field}}
}

func fromValidator(ve validator.ValidationErrors) *Error {
	e := &Error{fields: make(map[string]string, len(ve))}
	for _, fe := range ve {
		if _, seen := e.fields[fe.Field()]; seen {
			continue
		}
		e.fields[fe.Field()] = msgForTag(fe)
		e.order = append(e.order, fe.Field())
	}
	return e
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.order))
	for _, f := range e.order {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f, e.fields[f]))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a copy of the field -> message map.
func (e *Error) Fields() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

func msgForTag(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be less than %s characters", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s is too long; it must be at most %s bytes", label, fe.Param())
	case "personname":
		return "Name can only contain letters and spaces"
	case "mobile":
		return "Mobile number must be exactly 10 digits and start with 6, 7, 8, or 9"
	case "strongpassword":
		return "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"
	case "date":
		return fmt.Sprintf("%s must be a date formatted as YYYY-MM-DD", label)
	case "pastdate":
		return fmt.Sprintf("%s cannot be in the future", label)
	case "minage":
		return fmt.Sprintf("You must be at least %d years old", MinAge)
	default:
		return fmt.Sprintf("%s failed on '%s' validation", label, fe.Tag())
	}
}

var labels = map[string]string{
	"name":          "Name",
	"email":         "Email",
	"mobile":        "Mobile number",
	"password":      "Password",
	"date_of_birth": "Date of birth",
}

// StrongPassword requires an ASCII lower-case letter, upper-case letter and
// digit, plus one of @$!%*?&.
func StrongPassword(p string) bool {
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// AgeOn returns the age in whole years of someone born on dob, as of day.
func AgeOn(dob, day time.Time) int {
	age := day.Year() - dob.Year()
	if day.Month() < dob.Month() || (day.Month() == dob.Month() && day.Day() < dob.Day()) {
		age--
	}
	return age
}
