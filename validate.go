package authflow

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password the screens accept.
const MinPasswordLength = 6

// ResetCodeLength is the number of digits in an emailed reset code.
const ResetCodeLength = 6

var forms = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	})
	return v
}

type signInForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Field order decides which problem is reported first: the confirmation is
// compared before the length check, and an empty password reads as too short.
type signUpForm struct {
	Name            string `validate:"required"`
	Email           string `validate:"required"`
	ConfirmPassword string `validate:"eqfield=Password"`
	Password        string `validate:"min=6"`
}

type newPasswordForm struct {
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

// ValidateSignIn checks sign-in input. The email is trimmed first.
func ValidateSignIn(email, password string) error {
	return checkForm(signInForm{Email: strings.TrimSpace(email), Password: password})
}

// ValidateSignUp checks sign-up input and reports the first problem in the
// order name, email, confirmation, password length. A confirmation that
// differs from the password and a password shorter than MinPasswordLength
// are rejected whatever the other fields hold.
func ValidateSignUp(name, email, password, confirmPassword string) error {
	return checkForm(signUpForm{
		Name:            strings.TrimSpace(name),
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: confirmPassword,
	})
}

// ValidateResetCode accepts exactly ResetCodeLength ASCII digits.
func ValidateResetCode(code string) error {
	if err := forms.Var(code, "len=6,digits"); err != nil {
		return &ValidationError{Kind: InvalidCodeLength}
	}
	return nil
}

// ValidateNewPassword checks the new password of a reset.
func ValidateNewPassword(password, confirmPassword string) error {
	return checkForm(newPasswordForm{Password: password, ConfirmPassword: confirmPassword})
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Kind: MissingEmail}
	}
	return nil
}

func checkForm(form any) error {
	err := forms.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return fieldProblem(fieldErrs[0])
}

func fieldProblem(fe validator.FieldError) *ValidationError {
	switch fe.Field() {
	case "Name":
		return &ValidationError{Kind: MissingName}
	case "Email":
		return &ValidationError{Kind: MissingEmail}
	case "ConfirmPassword":
		return &ValidationError{Kind: PasswordMismatch}
	case "Password":
		if fe.Tag() == "required" {
			return &ValidationError{Kind: MissingPassword}
		}
		return &ValidationError{Kind: PasswordTooShort, Min: MinPasswordLength}
	default:
		return &ValidationError{Kind: InvalidCodeLength}
	}
}
