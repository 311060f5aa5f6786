package sanitize

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// User-facing messages, in the base locale. They double as catalog keys.
const (
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgSignInFailed       = "Unable to sign in right now. Please try again."
	MsgTooManyAttempts    = "Too many attempts. Please wait a few minutes and try again."

	MsgSignUpFailed = "Unable to create an account with these details. If you already have an account, try signing in."
	MsgInvalidEmail = "Please enter a valid email address."
	MsgWeakPassword = "Password does not meet the requirements. Please choose a stronger password."

	MsgResetRequested = "If an account exists with this email, you'll receive a 6-digit verification code shortly."
	MsgCodeResent     = "A new verification code has been sent to your email."
	MsgCodeResentSafe = "If an account exists with this email, a new code is on its way."

	MsgInvalidCode = "This code is invalid or has expired. Please request a new one."
	MsgResetFailed = "Unable to reset your password. Please try again."

	MsgPasswordUpdated = "Your password has been updated. Please sign in with your new password."
	MsgInvalidLink     = "This reset link is invalid or has expired. Please request a new code."
)

// Local validation messages. They reveal nothing about accounts and are shown
// as is.
const (
	MsgMissingEmail      = "Please enter your email address."
	MsgMissingPassword   = "Please enter your password."
	MsgMissingName       = "Please enter your name."
	MsgPasswordMismatch  = "Passwords do not match."
	MsgPasswordTooShort  = "Password must be at least 6 characters."
	MsgInvalidCodeLength = "Please enter the 6-digit code from your email."
)

var spanish = map[string]string{
	MsgInvalidCredentials: "Correo o contraseña incorrectos. Inténtalo de nuevo.",
	MsgSignInFailed:       "No se pudo iniciar sesión. Inténtalo de nuevo.",
	MsgTooManyAttempts:    "Demasiados intentos. Espera unos minutos e inténtalo de nuevo.",
	MsgSignUpFailed:       "No se pudo crear una cuenta con estos datos. Si ya tienes una cuenta, inicia sesión.",
	MsgInvalidEmail:       "Introduce un correo electrónico válido.",
	MsgWeakPassword:       "La contraseña no cumple los requisitos. Elige una contraseña más segura.",
	MsgResetRequested:     "Si existe una cuenta con este correo, recibirás un código de verificación de 6 dígitos en breve.",
	MsgCodeResent:         "Te hemos enviado un nuevo código de verificación.",
	MsgCodeResentSafe:     "Si existe una cuenta con este correo, recibirás un nuevo código en breve.",
	MsgInvalidCode:        "Este código no es válido o ha caducado. Solicita uno nuevo.",
	MsgResetFailed:        "No se pudo restablecer la contraseña. Inténtalo de nuevo.",
	MsgPasswordUpdated:    "Tu contraseña se ha actualizado. Inicia sesión con tu nueva contraseña.",
	MsgInvalidLink:        "Este enlace no es válido o ha caducado. Solicita un nuevo código.",
	MsgMissingEmail:       "Introduce tu correo electrónico.",
	MsgMissingPassword:    "Introduce tu contraseña.",
	MsgMissingName:        "Introduce tu nombre.",
	MsgPasswordMismatch:   "Las contraseñas no coinciden.",
	MsgPasswordTooShort:   "La contraseña debe tener al menos 6 caracteres.",
	MsgInvalidCodeLength:  "Introduce el código de 6 dígitos de tu correo.",
}

var allMessages = []string{
	MsgInvalidCredentials,
	MsgSignInFailed,
	MsgTooManyAttempts,
	MsgSignUpFailed,
	MsgInvalidEmail,
	MsgWeakPassword,
	MsgResetRequested,
	MsgCodeResent,
	MsgCodeResentSafe,
	MsgInvalidCode,
	MsgResetFailed,
	MsgPasswordUpdated,
	MsgInvalidLink,
	MsgMissingEmail,
	MsgMissingPassword,
	MsgMissingName,
	MsgPasswordMismatch,
	MsgPasswordTooShort,
	MsgInvalidCodeLength,
}

// SupportedLanguages lists the locales with a full message set. The first
// entry is the fallback.
var SupportedLanguages = []language.Tag{language.English, language.Spanish}

func buildCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, msg := range allMessages {
		if err := b.SetString(language.English, msg, msg); err != nil {
			return nil, err
		}
		if translated, ok := spanish[msg]; ok {
			if err := b.SetString(language.Spanish, msg, translated); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
