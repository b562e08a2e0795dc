// internal/domain/user.go
package domain

import (
	"strings"
	"time"
)

// User представляет зарегистрированного пользователя каталога
type User struct {
	ID           string    `json:"id" db:"id"` // UUID
	Name         string    `json:"name" db:"nome"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"senha_hash"` // Не отдаем хеш пароля в JSON
	CreatedAt    time.Time `json:"created_at" db:"criado_em"`
}

// RegisterRequest для регистрации нового пользователя (HTTP)
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginRequest для входа пользователя (HTTP)
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse для ответа при успешном входе (HTTP)
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// NormalizeEmail приводит email к каноническому виду, в котором он хранится и ищется.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Public возвращает копию пользователя без хеша пароля.
func (u *User) Public() *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
