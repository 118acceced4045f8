package application

import (
	"context"

	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт хранилища заявок. Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store - хранилище заявок.
//
// Все перечисления и подсчёты для администратора принимают один и тот же
// eligibility.Filter и применяют его одинаково.
type Store interface {
	// FindApplication возвращает заявку по ID.
	// Возвращает ErrApplicationNotFound, если заявки нет.
	FindApplication(ctx context.Context, id string) (*Application, error)

	// UpdateStatus меняет статус одной заявки. Возвращает число затронутых строк
	// (0 - заявки нет). admin_seen не трогает.
	UpdateStatus(ctx context.Context, id string, status Status) (int64, error)

	// UpdateStatusAndRemarks атомарно меняет статус и комментарий.
	UpdateStatusAndRemarks(ctx context.Context, id string, status Status, remarks string) (int64, error)

	// ListQualifyingApplications возвращает квалифицированные заявки,
	// новые первыми.
	ListQualifyingApplications(ctx context.Context, filter eligibility.Filter, opts ListOptions) ([]Review, error)

	// CountQualifyingApplications возвращает число квалифицированных заявок.
	CountQualifyingApplications(ctx context.Context, filter eligibility.Filter) (int, error)

	// CountUnseenQualifyingPending возвращает число квалифицированных заявок
	// в статусе Pending, которые администратор ещё не видел.
	CountUnseenQualifyingPending(ctx context.Context, filter eligibility.Filter) (int, error)

	// MarkAllPendingSeen помечает просмотренными квалифицированные заявки
	// Pending+unseen одним обновлением. Возвращает число изменённых строк.
	MarkAllPendingSeen(ctx context.Context, filter eligibility.Filter) (int64, error)

	// Submit в одной транзакции обновляет профиль студента и сохраняет заявку.
	// Возвращает ErrApplicationAlreadyExists при повторной подаче на ту же стипендию.
	Submit(ctx context.Context, sub Submission) error
}

// Submission - данные подачи заявки.
type Submission struct {
	Application *Application
	Profile     eligibility.Profile
}

// ListOptions - параметры выборки списка заявок.
// Сортировка всегда по дате подачи, новые первыми.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей. 0 - без ограничения.
	Limit int
}

// DefaultListOptions возвращает опции без ограничений.
func DefaultListOptions() ListOptions {
	return ListOptions{}
}

// WithLimit устанавливает лимит.
func (o ListOptions) WithLimit(limit int) ListOptions {
	if limit < 0 {
		limit = 0
	}
	o.Limit = limit
	return o
}

// WithOffset устанавливает смещение.
func (o ListOptions) WithOffset(offset int) ListOptions {
	if offset < 0 {
		offset = 0
	}
	o.Offset = offset
	return o
}
