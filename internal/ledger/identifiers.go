// Package ledger содержит чистые функции учёта кассы: генерацию номеров,
// вычисление статуса абонемента и остатка наличных в открытой смене.
package ledger

import (
	"fmt"
	"time"
)

// CardNumber возвращает номер карты вида YY-NNN: две последние цифры года и счётчик,
// дополненный нулями до трёх знаков. Счётчики от 1000 дают больше трёх цифр.
func CardNumber(counter int, now time.Time) string {
	return fmt.Sprintf("%02d-%03d", now.Year()%100, counter)
}

// WithdrawalNumber возвращает номер изъятия: счётчик, дополненный нулями до трёх знаков.
func WithdrawalNumber(counter int) string {
	return fmt.Sprintf("%03d", counter)
}
