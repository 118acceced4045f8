package student

import (
	"math"
	"strings"
	"time"

	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

const (
	// MinAcademicScore - лучший возможный балл.
	MinAcademicScore = 1.00

	// MaxAcademicScore - худший возможный балл.
	MaxAcademicScore = 5.00

	// AcademicScoreStep - шаг шкалы баллов.
	AcademicScoreStep = 0.25
)

// Student - студент, подающий заявки.
type Student struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	SchoolName    string    `json:"school_name"`
	Course        string    `json:"course"`
	FamilyIncome  float64   `json:"family_income"`
	AcademicScore float64   `json:"academic_score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Profile возвращает данные студента для проверки отбора.
func (s *Student) Profile() eligibility.Profile {
	return eligibility.Profile{
		FamilyIncome:  s.FamilyIncome,
		AcademicScore: s.AcademicScore,
	}
}

// ApplyProfile перезаписывает доход и балл.
func (s *Student) ApplyProfile(p eligibility.Profile, now time.Time) {
	s.FamilyIncome = p.FamilyIncome
	s.AcademicScore = p.AcademicScore
	s.UpdatedAt = now.UTC()
}

// FullName возвращает имя и фамилию через пробел.
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// NewProfile проверяет заявленные доход и балл.
// Доход должен быть больше нуля, балл - в [1.00, 5.00] с шагом 0.25.
func NewProfile(familyIncome, academicScore float64) (eligibility.Profile, error) {
	if math.IsNaN(familyIncome) || math.IsInf(familyIncome, 0) || familyIncome <= 0 {
		return eligibility.Profile{}, shared.ErrInvalidIncome
	}
	if !IsValidAcademicScore(academicScore) {
		return eligibility.Profile{}, shared.ErrInvalidAcademicScore
	}
	return eligibility.Profile{
		FamilyIncome:  familyIncome,
		AcademicScore: academicScore,
	}, nil
}

// IsValidAcademicScore проверяет диапазон и шаг шкалы.
func IsValidAcademicScore(score float64) bool {
	if math.IsNaN(score) || score < MinAcademicScore || score > MaxAcademicScore {
		return false
	}
	steps := (score - MinAcademicScore) / AcademicScoreStep
	return math.Abs(steps-math.Round(steps)) < 1e-9
}
