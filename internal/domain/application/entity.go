// Package application содержит заявку на стипендию, её статусы
// и контракт хранилища заявок.
package application

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

const (
	// MaxRemarksLength - ограничение на длину комментария администратора.
	MaxRemarksLength = 2000

	// MaxDocuments - максимальное число приложенных документов.
	MaxDocuments = 10
)

// Application - заявка студента на конкретную стипендию.
// Пара (StudentID, ScholarshipID) уникальна.
type Application struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	ScholarshipID string    `json:"scholarship_id"`
	Status        Status    `json:"status"`
	AdminSeen     bool      `json:"admin_seen"`
	Remarks       string    `json:"remarks"`
	Documents     []string  `json:"documents"`
	DateApplied   time.Time `json:"date_applied"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// New создаёт заявку в статусе Pending, ещё не просмотренную администратором.
func New(studentID, scholarshipID string, documents []string, now time.Time) (*Application, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, shared.NewDomainError("application", "New", shared.ErrEmptyValue, "student_id is required")
	}
	if strings.TrimSpace(scholarshipID) == "" {
		return nil, shared.NewDomainError("application", "New", shared.ErrEmptyValue, "scholarship_id is required")
	}

	docs, err := normalizeDocuments(documents)
	if err != nil {
		return nil, err
	}

	return &Application{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		ScholarshipID: scholarshipID,
		Status:        StatusPending,
		AdminSeen:     false,
		Documents:     docs,
		DateApplied:   now.UTC(),
		UpdatedAt:     now.UTC(),
	}, nil
}

// IsPendingUnseen - заявка ждёт внимания администратора.
func (a *Application) IsPendingUnseen() bool {
	return a.Status == StatusPending && !a.AdminSeen
}

// ValidateRemarks проверяет комментарий администратора.
func ValidateRemarks(remarks string) error {
	if len([]rune(remarks)) > MaxRemarksLength {
		return shared.ErrRemarksTooLong
	}
	return nil
}

func normalizeDocuments(documents []string) ([]string, error) {
	docs := make([]string, 0, len(documents))
	for _, d := range documents {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		docs = append(docs, d)
	}
	if len(docs) > MaxDocuments {
		return nil, shared.ErrTooManyDocuments
	}
	return docs, nil
}

// StudentSummary - данные студента для строки списка заявок.
type StudentSummary struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	FamilyIncome  float64 `json:"family_income"`
	AcademicScore float64 `json:"academic_score"`
}

// FullName возвращает имя и фамилию через пробел.
func (s StudentSummary) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// ScholarshipSummary - данные стипендии для строки списка заявок.
type ScholarshipSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Review - строка административного списка: заявка вместе со студентом и стипендией.
type Review struct {
	Application Application        `json:"application"`
	Student     StudentSummary     `json:"student"`
	Scholarship ScholarshipSummary `json:"scholarship"`
}
