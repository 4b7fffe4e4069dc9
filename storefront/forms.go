package storefront

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ShippingForm is the checkout address.
type ShippingForm struct {
	Receiver string `validate:"required,min=2,max=20" label:"receiver"`
	Phone    string `validate:"required,phone" label:"phone"`
	Address  string `validate:"required,min=5,max=100" label:"address"`
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Username string `validate:"required,min=2,max=32" label:"username"`
	Email    string `validate:"required,email" label:"email"`
	Password string `validate:"required,min=6" label:"password"`
	Confirm  string `validate:"required,eqfield=Password" label:"password confirmation"`
}

// LoginForm is the sign-in form. Account is a username or email.
type LoginForm struct {
	Account  string `validate:"required" label:"account"`
	Password string `validate:"required" label:"password"`
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed. No request is made for a
// form that fails validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Message returns the message for one field, or "".
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("label")
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks a form struct. Callers pass trimmed input.
func Validate(form any) error {
	err := formValidator().Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.StructField(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "phone":
		return fmt.Sprintf("%s must be an 11-digit mobile number", name)
	case "eqfield":
		return "passwords do not match"
	}
	return fmt.Sprintf("%s is invalid", name)
}
