package ledger

import (
	"time"

	"github.com/mmeshcher/apolo-gym/internal/model"
)

// MembershipPeriod задаёт фиксированную длительность абонемента без учёта календарных месяцев.
const MembershipPeriod = 30 * 24 * time.Hour

// EvaluateStatus возвращает статус абонемента на момент now.
// Ровно 30 дней после начала абонемент ещё действует.
func EvaluateStatus(start model.Date, now time.Time) model.MemberStatus {
	if now.Sub(start.Time) > MembershipPeriod {
		return model.StatusExpired
	}
	return model.StatusActive
}

// WithStatus возвращает копию участника с пересчитанным статусом.
func WithStatus(m model.Member, now time.Time) model.Member {
	m.Status = EvaluateStatus(m.StartDate, now)
	return m
}
