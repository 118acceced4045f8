// Package notification описывает бейдж новых заявок, который видит
// администратор. Состояние бейджа выводится из счётчика
// квалифицированных непросмотренных заявок Pending, полученного опросом.
package notification

import "fmt"

// BadgeState - видимость бейджа.
type BadgeState string

const (
	// BadgeHidden - счётчик равен нулю.
	BadgeHidden BadgeState = "hidden"

	// BadgeVisible - есть непросмотренные заявки.
	BadgeVisible BadgeState = "visible"
)

// Badge - состояние бейджа после очередного опроса.
// Нулевое значение - скрытый бейдж.
type Badge struct {
	Count int
}

// State возвращает Hidden для нуля и Visible для положительного счётчика.
func (b Badge) State() BadgeState {
	if b.Count > 0 {
		return BadgeVisible
	}
	return BadgeHidden
}

// String возвращает "hidden" или "visible(n)".
func (b Badge) String() string {
	if b.State() == BadgeHidden {
		return string(BadgeHidden)
	}
	return fmt.Sprintf("%s(%d)", BadgeVisible, b.Count)
}

// Change - переход бейджа между двумя опросами.
type Change struct {
	From Badge
	To   Badge
}

// Changed - изменилось ли отображаемое значение.
func (c Change) Changed() bool {
	return c.From.Count != c.To.Count
}

// Appeared - переход Hidden -> Visible(n).
func (c Change) Appeared() bool {
	return c.From.State() == BadgeHidden && c.To.State() == BadgeVisible
}

// Cleared - переход Visible(n) -> Hidden.
func (c Change) Cleared() bool {
	return c.From.State() == BadgeVisible && c.To.State() == BadgeHidden
}

// Observe применяет результат опроса. Каждый ответ считается текущей правдой,
// монотонность между опросами не предполагается. Отрицательные значения
// трактуются как ноль.
func (b Badge) Observe(count int) (Badge, Change) {
	if count < 0 {
		count = 0
	}
	next := Badge{Count: count}
	return next, Change{From: b, To: next}
}

// Acknowledge скрывает бейдж после успешного подтверждения.
func (b Badge) Acknowledge() (Badge, Change) {
	return b.Observe(0)
}
