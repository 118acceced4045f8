// Package scholarship содержит стипендиальную программу.
// С точки зрения рассмотрения заявок программа только читается.
package scholarship

import (
	"context"
	"time"
)

// Status - статус приёма заявок.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Scholarship - стипендиальная программа.
type Scholarship struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Sponsor   string    `json:"sponsor"`
	Amount    float64   `json:"amount"`
	Status    Status    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// IsOpen - принимает ли программа заявки.
func (s *Scholarship) IsOpen() bool {
	return s.Status == StatusOpen
}

// SortOrder - порядок списка открытых программ.
type SortOrder int

const (
	// NewestFirst - по дате старта, новые первыми (форма подачи).
	NewestFirst SortOrder = iota

	// ClosingSoonFirst - по дате окончания, ближайшие первыми (дашборд).
	ClosingSoonFirst
)

// Repository - операции чтения стипендий.
type Repository interface {
	// GetByID возвращает стипендию по ID.
	// Возвращает ErrScholarshipNotFound, если стипендия не найдена.
	GetByID(ctx context.Context, id string) (*Scholarship, error)

	// Count возвращает общее количество программ.
	Count(ctx context.Context) (int, error)

	// ListOpen возвращает открытые программы в заданном порядке. limit 0 - все.
	ListOpen(ctx context.Context, order SortOrder, limit int) ([]*Scholarship, error)
}
