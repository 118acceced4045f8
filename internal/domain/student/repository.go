package student

import (
	"context"
)

// Repository - операции чтения студентов для дашборда.
// Профиль студента пишется только через application.Store.Submit.
type Repository interface {
	// GetByID возвращает студента по ID.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// Count возвращает общее количество студентов.
	Count(ctx context.Context) (int, error)

	// ListNewest возвращает последних зарегистрированных студентов.
	ListNewest(ctx context.Context, limit int) ([]*Student, error)
}
