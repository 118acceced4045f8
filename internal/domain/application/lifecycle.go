package application

import (
	"strings"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// Единая точка проверки переходов статуса. Через неё проходят оба пути записи:
// быстрые действия (approve/reject) и полное редактирование.
// ══════════════════════════════════════════════════════════════════════════════

// Action - быстрое действие администратора.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction разбирает действие из внешнего ввода.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	}
	return "", shared.ErrUnknownAction
}

// Trigger описывает, каким путём был инициирован переход.
type Trigger string

const (
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
	TriggerEdit    Trigger = "edit"
)

// Transition - проверенный переход, который можно записывать в хранилище.
type Transition struct {
	From    Status
	To      Status
	Trigger Trigger

	// NoOp - статус уже равен целевому. Для быстрых действий запись не нужна.
	NoOp bool
}

type quickRule struct {
	target  Status
	trigger Trigger
	from    []Status
}

// Lifecycle - конечный автомат статусов заявки.
// Нулевое значение готово к использованию.
type Lifecycle struct{}

var quickRules = map[Action]quickRule{
	ActionApprove: {target: StatusApproved, trigger: TriggerApprove, from: []Status{StatusPending, StatusRejected}},
	ActionReject:  {target: StatusRejected, trigger: TriggerReject, from: []Status{StatusPending, StatusApproved}},
}

// Offered возвращает быстрые действия, доступные из текущего статуса.
// Повтор уже применённого действия сюда не входит.
func (Lifecycle) Offered(current Status) []Action {
	actions := make([]Action, 0, 2)
	for _, a := range []Action{ActionApprove, ActionReject} {
		if containsStatus(quickRules[a].from, current) {
			actions = append(actions, a)
		}
	}
	return actions
}

// Quick проверяет быстрое действие.
//
// approve разрешён из Pending и Rejected, reject - из Pending и Approved.
// Повторное действие (approve над Approved) - успешный NoOp.
// Всё остальное - ErrActionNotOffered.
func (Lifecycle) Quick(current Status, action Action) (Transition, error) {
	if !current.IsValid() {
		return Transition{}, shared.ErrUnknownStatus
	}
	rule, ok := quickRules[action]
	if !ok {
		return Transition{}, shared.ErrUnknownAction
	}

	t := Transition{From: current, To: rule.target, Trigger: rule.trigger}
	if current == rule.target {
		t.NoOp = true
		return t, nil
	}
	if !containsStatus(rule.from, current) {
		return Transition{}, shared.ErrActionNotOffered
	}
	return t, nil
}

// Edit проверяет полное редактирование: допустим любой известный статус
// из любого текущего.
func (Lifecycle) Edit(current, target Status) (Transition, error) {
	if !target.IsValid() {
		return Transition{}, shared.ErrUnknownStatus
	}
	return Transition{
		From:    current,
		To:      target,
		Trigger: TriggerEdit,
		NoOp:    current == target,
	}, nil
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
