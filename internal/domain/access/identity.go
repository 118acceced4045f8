// Package access описывает вызывающего: кто он и с какой ролью.
// Аутентификация выполняется снаружи (AuthGate), здесь только проверка роли.
package access

import (
	"context"
	"strings"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// Role - роль вызывающего.
type Role string

const (
	RoleAnonymous Role = ""
	RoleAdmin     Role = "admin"
	RoleStudent   Role = "student"
)

// ParseRole нормализует роль из токена. Неизвестная роль - аноним.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStudent:
		return RoleStudent
	}
	return RoleAnonymous
}

// Identity - результат проверки AuthGate.
type Identity struct {
	UserID string
	Role   Role
}

// Anonymous - вызывающий без проверенной личности.
var Anonymous = Identity{}

// IsAnonymous - нет ни пользователя, ни роли.
func (i Identity) IsAnonymous() bool {
	return i.UserID == "" || i.Role == RoleAnonymous
}

// IsAdmin - вызывающий администратор.
func (i Identity) IsAdmin() bool {
	return !i.IsAnonymous() && i.Role == RoleAdmin
}

// RequireAdmin возвращает ErrUnauthorized для анонима и ErrForbidden
// для любой другой роли.
func (i Identity) RequireAdmin(op string) error {
	if i.IsAnonymous() {
		return shared.NewDomainError("access", op, shared.ErrUnauthorized, "authentication required")
	}
	if i.Role != RoleAdmin {
		return shared.NewDomainError("access", op, shared.ErrForbidden, "admin role required")
	}
	return nil
}

// RequireStudent возвращает ошибку, если вызывающий не студент.
func (i Identity) RequireStudent(op string) error {
	if i.IsAnonymous() {
		return shared.NewDomainError("access", op, shared.ErrUnauthorized, "authentication required")
	}
	if i.Role != RoleStudent {
		return shared.NewDomainError("access", op, shared.ErrForbidden, "student role required")
	}
	return nil
}

type ctxKey struct{}

// WithIdentity кладёт личность в контекст.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext возвращает личность из контекста или Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Anonymous
}
