// Package eligibility определяет предикат отбора заявок для администраторов.
//
// Заявка считается квалифицированной, если доход семьи студента не превышает
// IncomeLimit и академический балл не превышает ScoreLimit (меньше = лучше).
// Фильтр передаётся явно во все места, где заявки перечисляются или считаются:
// список заявок, счётчики дашборда и счётчик уведомлений.
package eligibility

import (
	"fmt"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

const (
	// DefaultIncomeLimit - потолок ежемесячного дохода семьи.
	DefaultIncomeLimit = 20000.0

	// DefaultScoreLimit - потолок академического балла.
	DefaultScoreLimit = 2.50
)

// Profile - данные студента, по которым принимается решение.
type Profile struct {
	FamilyIncome  float64
	AcademicScore float64
}

// Filter - пороги отбора. Нулевое значение не пропускает никого,
// поэтому конструируйте через New или Default.
type Filter struct {
	IncomeLimit float64
	ScoreLimit  float64
}

// Default возвращает фильтр с порогами 20000 / 2.50.
func Default() Filter {
	return Filter{
		IncomeLimit: DefaultIncomeLimit,
		ScoreLimit:  DefaultScoreLimit,
	}
}

// New создаёт фильтр и проверяет, что оба порога положительные.
func New(incomeLimit, scoreLimit float64) (Filter, error) {
	f := Filter{IncomeLimit: incomeLimit, ScoreLimit: scoreLimit}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate проверяет пороги.
func (f Filter) Validate() error {
	if f.IncomeLimit <= 0 || f.ScoreLimit <= 0 {
		return shared.ErrInvalidEligibilityLimit
	}
	return nil
}

// Qualifies возвращает true, если профиль проходит оба порога.
// Границы включительные.
func (f Filter) Qualifies(p Profile) bool {
	return p.FamilyIncome <= f.IncomeLimit && p.AcademicScore <= f.ScoreLimit
}

// String возвращает читаемое представление для логов.
func (f Filter) String() string {
	return fmt.Sprintf("income<=%.2f score<=%.2f", f.IncomeLimit, f.ScoreLimit)
}
