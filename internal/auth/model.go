// Package auth manages admin accounts and issues admin session tokens.
package auth

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredential covers malformed or empty email/password input.
	ErrInvalidCredential = errors.New("auth: invalid credential")
	// ErrUserNotFound is returned when no admin has the given email.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrWrongPassword is returned when the password does not match.
	ErrWrongPassword = errors.New("auth: wrong password")
)

// User-facing login messages.
const (
	MsgInvalidCredential = "Credenciales inválidas."
	MsgUserNotFound      = "Usuario no encontrado."
	MsgWrongPassword     = "Contraseña incorrecta."
	MsgLoginFailed       = "Error al iniciar sesión."
)

// AdminUser is stored in the admins collection keyed by lowercased email.
type AdminUser struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is returned after a successful login.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Message maps a login error to the text shown to the admin.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return MsgInvalidCredential
	case errors.Is(err, ErrUserNotFound):
		return MsgUserNotFound
	case errors.Is(err, ErrWrongPassword):
		return MsgWrongPassword
	default:
		return MsgLoginFailed
	}
}
