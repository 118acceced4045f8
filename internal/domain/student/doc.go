// Package student содержит доменную модель студента-соискателя стипендии.
//
// Пакет определяет:
//
//   - Сущность Student с заявленным доходом семьи и академическим баллом
//   - Проверку финансово-академического профиля при подаче заявки
//   - Интерфейс репозитория Repository (реализации в infrastructure)
//
// # Профиль
//
// Доход и балл перезаписываются при каждой подаче заявки. Отбор заявок
// (пакет eligibility) всегда смотрит на текущий профиль:
//
//	profile, err := NewProfile(15000, 2.00)
//	if err != nil {
//	    return err
//	}
//	ok := filter.Qualifies(profile)
//
// Балл лежит в диапазоне [1.00, 5.00] с шагом 0.25, меньше - лучше.
package student
