// Package store реализует операции изменения состояния спортзала.
// Каждая операция проверяет входные данные и возвращает новое состояние, не изменяя исходное;
// при ошибке состояние не меняется. Коллекции, не затронутые операцией, разделяются с исходным состоянием.
package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/apolo-gym/internal/ledger"
	"github.com/mmeshcher/apolo-gym/internal/model"
	"github.com/mmeshcher/apolo-gym/internal/validation"
)

// MemberFields содержит данные для регистрации участника.
type MemberFields struct {
	FullName      string
	NationalID    string
	StartDate     model.Date
	PaymentMethod model.PaymentMethod
	Amount        decimal.Decimal
}

// CashInFields содержит данные для регистрации поступления.
type CashInFields struct {
	CardNumber    string
	Amount        decimal.Decimal
	PaymentMethod model.PaymentMethod
}

// WithdrawalFields содержит данные для регистрации изъятия.
type WithdrawalFields struct {
	Amount      decimal.Decimal
	Description *string
}

// ExpenseFields содержит данные для регистрации расхода.
type ExpenseFields struct {
	Amount        decimal.Decimal
	Supplier      string
	Reason        string
	ReceiptNumber *string
}

// AddMember регистрирует участника и увеличивает счётчик карт.
// Без даты начала абонемент начинается в день now.
func AddMember(s model.State, f MemberFields, id string, now time.Time) (model.State, model.Member, error) {
	name := strings.TrimSpace(f.FullName)
	nationalID := strings.TrimSpace(f.NationalID)

	if name == "" {
		return s, model.Member{}, fmt.Errorf("%w: full name is required", ErrValidation)
	}
	if nationalID == "" {
		return s, model.Member{}, fmt.Errorf("%w: national id is required", ErrValidation)
	}
	if !f.PaymentMethod.Valid() {
		return s, model.Member{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, f.PaymentMethod)
	}
	if f.Amount.IsNegative() {
		return s, model.Member{}, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	start := f.StartDate
	if start.IsZero() {
		start = model.NewDate(now)
	}

	m := model.Member{
		ID:            id,
		CardNumber:    ledger.CardNumber(s.Counters.Card, now),
		FullName:      name,
		NationalID:    nationalID,
		StartDate:     start,
		PaymentMethod: f.PaymentMethod,
		Amount:        f.Amount,
	}
	m = ledger.WithStatus(m, now)

	s.Members = append(slices.Clip(s.Members), m)
	s.Counters.Card++

	return s, m, nil
}

// AddCashIn регистрирует поступление от существующего участника в открытой смене.
func AddCashIn(s model.State, f CashInFields, id string, now time.Time) (model.State, model.CashIn, error) {
	card := strings.TrimSpace(f.CardNumber)

	if !validation.IsValidCardNumber(card) {
		return s, model.CashIn{}, fmt.Errorf("%w: malformed card number %q", ErrValidation, f.CardNumber)
	}
	if !f.Amount.IsPositive() {
		return s, model.CashIn{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !f.PaymentMethod.Valid() {
		return s, model.CashIn{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, f.PaymentMethod)
	}

	member, ok := s.FindMember(card)
	if !ok {
		return s, model.CashIn{}, fmt.Errorf("%w: no member with card %s", ErrNotFound, card)
	}
	if _, ok := s.OpenShift(); !ok {
		return s, model.CashIn{}, fmt.Errorf("%w: no open shift", ErrConflict)
	}

	c := model.CashIn{
		ID:            id,
		CardNumber:    member.CardNumber,
		MemberName:    member.FullName,
		Amount:        f.Amount,
		PaymentMethod: f.PaymentMethod,
		Timestamp:     now,
	}

	s.CashIns = append(slices.Clip(s.CashIns), c)
	return s, c, nil
}

// AddWithdrawal регистрирует изъятие наличных в открытой смене и увеличивает счётчик изъятий.
func AddWithdrawal(s model.State, f WithdrawalFields, id string, now time.Time) (model.State, model.Withdrawal, error) {
	if !f.Amount.IsPositive() {
		return s, model.Withdrawal{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if _, ok := s.OpenShift(); !ok {
		return s, model.Withdrawal{}, fmt.Errorf("%w: no open shift", ErrConflict)
	}

	w := model.Withdrawal{
		ID:             id,
		SequenceNumber: ledger.WithdrawalNumber(s.Counters.Withdrawal),
		Amount:         f.Amount,
		Timestamp:      now,
		Description:    optional(f.Description),
	}

	s.Withdrawals = append(slices.Clip(s.Withdrawals), w)
	s.Counters.Withdrawal++

	return s, w, nil
}

// AddExpense регистрирует расход в открытой смене.
func AddExpense(s model.State, f ExpenseFields, id string, now time.Time) (model.State, model.Expense, error) {
	supplier := strings.TrimSpace(f.Supplier)
	reason := strings.TrimSpace(f.Reason)

	if !f.Amount.IsPositive() {
		return s, model.Expense{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if supplier == "" {
		return s, model.Expense{}, fmt.Errorf("%w: supplier is required", ErrValidation)
	}
	if reason == "" {
		return s, model.Expense{}, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if _, ok := s.OpenShift(); !ok {
		return s, model.Expense{}, fmt.Errorf("%w: no open shift", ErrConflict)
	}

	e := model.Expense{
		ID:            id,
		Amount:        f.Amount,
		Supplier:      supplier,
		Reason:        reason,
		ReceiptNumber: optional(f.ReceiptNumber),
		Timestamp:     now,
	}

	s.Expenses = append(slices.Clip(s.Expenses), e)
	return s, e, nil
}

// OpenShift открывает новую смену. Одновременно может быть открыта только одна смена.
func OpenShift(s model.State, operatorName string, openingCash decimal.Decimal, id string, now time.Time) (model.State, model.Shift, error) {
	operator := strings.TrimSpace(operatorName)

	if operator == "" {
		return s, model.Shift{}, fmt.Errorf("%w: operator name is required", ErrValidation)
	}
	if openingCash.IsNegative() {
		return s, model.Shift{}, fmt.Errorf("%w: opening cash must not be negative", ErrValidation)
	}
	if open, ok := s.OpenShift(); ok {
		return s, model.Shift{}, fmt.Errorf("%w: shift %s of %s is already open", ErrConflict, open.ID, open.OperatorName)
	}

	sh := model.Shift{
		ID:           id,
		OperatorName: operator,
		StartTime:    now,
		OpeningCash:  openingCash,
	}

	s.Shifts = append(slices.Clip(s.Shifts), sh)
	return s, sh, nil
}

// CloseShift закрывает открытую смену, фиксируя конечную сумму и собранную выручку.
func CloseShift(s model.State, closingCash decimal.Decimal, now time.Time) (model.State, model.Shift, error) {
	if closingCash.IsNegative() {
		return s, model.Shift{}, fmt.Errorf("%w: closing cash must not be negative", ErrValidation)
	}

	idx := s.OpenShiftIndex()
	if idx < 0 {
		return s, model.Shift{}, fmt.Errorf("%w: no open shift", ErrConflict)
	}

	sh := s.Shifts[idx]
	end := now
	closing := closingCash
	net := closingCash.Sub(sh.OpeningCash)

	sh.Closed = true
	sh.EndTime = &end
	sh.ClosingCash = &closing
	sh.NetCollected = &net

	shifts := slices.Clone(s.Shifts)
	shifts[idx] = sh
	s.Shifts = shifts

	return s, sh, nil
}

// RefreshStatuses возвращает состояние с пересчитанными статусами всех участников.
func RefreshStatuses(s model.State, now time.Time) model.State {
	members := make([]model.Member, len(s.Members))
	for i, m := range s.Members {
		members[i] = ledger.WithStatus(m, now)
	}
	s.Members = members
	return s
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
