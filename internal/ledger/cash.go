package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/apolo-gym/internal/model"
)

// CashOnHand вычисляет наличные в кассе открытой смены: начальная сумма плюс поступления
// наличными минус изъятия и расходы, начиная с момента открытия смены.
// Без открытой смены возвращает ноль. Переводы на наличные не влияют.
func CashOnHand(shift *model.Shift, cashIns []model.CashIn, withdrawals []model.Withdrawal, expenses []model.Expense) decimal.Decimal {
	if shift == nil || shift.Closed {
		return decimal.Zero
	}

	since := shift.StartTime
	total := shift.OpeningCash

	for _, c := range cashIns {
		if c.PaymentMethod == model.PaymentCash && !c.Timestamp.Before(since) {
			total = total.Add(c.Amount)
		}
	}
	for _, w := range withdrawals {
		if !w.Timestamp.Before(since) {
			total = total.Sub(w.Amount)
		}
	}
	for _, e := range expenses {
		if !e.Timestamp.Before(since) {
			total = total.Sub(e.Amount)
		}
	}

	return total
}

// StateCashOnHand вычисляет наличные в кассе для открытой смены состояния.
func StateCashOnHand(s model.State) decimal.Decimal {
	shift, ok := s.OpenShift()
	if !ok {
		return decimal.Zero
	}
	return CashOnHand(&shift, s.CashIns, s.Withdrawals, s.Expenses)
}
