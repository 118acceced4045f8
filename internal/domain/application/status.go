package application

import (
	"strings"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// Status - статус рассмотрения заявки. Набор фиксированный.
type Status string

const (
	// StatusPending - начальный статус, выставляется при подаче.
	StatusPending Status = "Pending"

	// StatusApproved - заявка одобрена.
	StatusApproved Status = "Approved"

	// StatusRejected - заявка отклонена.
	StatusRejected Status = "Rejected"

	// StatusForInterview - студент приглашён на собеседование.
	StatusForInterview Status = "For Interview"
)

// AllStatuses возвращает все известные статусы в порядке отображения.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusForInterview}
}

// IsValid проверяет, что статус входит в фиксированный набор.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusForInterview:
		return true
	}
	return false
}

// String возвращает значение статуса в том виде, в каком оно хранится.
func (s Status) String() string {
	return string(s)
}

// ParseStatus разбирает статус из внешнего ввода.
// Регистр, пробелы по краям и разделители ("for_interview", "ForInterview")
// не важны. Неизвестное значение - ErrUnknownStatus.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)

	switch key {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	case "forinterview":
		return StatusForInterview, nil
	}
	return "", shared.ErrUnknownStatus
}
