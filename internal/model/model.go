// Package model содержит доменные сущности приложения спортзала и формат JSON-документа состояния.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Суммы в документе хранятся числами, как в исходном файле данных.
	decimal.MarshalJSONWithoutQuotes = true
}

// PaymentMethod описывает форму оплаты.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "efectivo"
	PaymentTransfer PaymentMethod = "transferencia"
)

// Valid сообщает, является ли значение одной из допустимых форм оплаты.
func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentTransfer
}

// MemberStatus описывает статус абонемента участника.
type MemberStatus string

const (
	StatusActive  MemberStatus = "vigente"
	StatusExpired MemberStatus = "vencido"
)

// Date описывает календарную дату без времени суток, в документе записывается как YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate усекает момент времени до полуночи UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает дату в формате YYYY-MM-DD или полную метку времени RFC 3339.
// Время суток метки отбрасывается, чтобы дата не менялась после сохранения.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return NewDate(t), nil
}

// Equal сообщает, совпадают ли календарные даты.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// MarshalJSON реализует json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.UTC().Format(dateLayout) + `"`), nil
}

// UnmarshalJSON реализует json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Member представляет участника (socio) с номером карты.
// Status вычисляется при чтении и не считается достоверным после загрузки.
type Member struct {
	ID            string          `json:"id"`
	CardNumber    string          `json:"carnet"`
	FullName      string          `json:"nombreCompleto"`
	NationalID    string          `json:"dni"`
	StartDate     Date            `json:"fechaInicio"`
	PaymentMethod PaymentMethod   `json:"formaPago"`
	Amount        decimal.Decimal `json:"monto"`
	Status        MemberStatus    `json:"estado,omitempty"`
}

// CashIn описывает поступление оплаты от участника (ingreso).
type CashIn struct {
	ID            string          `json:"id"`
	CardNumber    string          `json:"carnet"`
	MemberName    string          `json:"nombreSocio"`
	Amount        decimal.Decimal `json:"monto"`
	PaymentMethod PaymentMethod   `json:"formaPago"`
	Timestamp     time.Time       `json:"fecha"`
}

// Withdrawal описывает изъятие наличных из кассы (retiro).
type Withdrawal struct {
	ID             string          `json:"id"`
	SequenceNumber string          `json:"numero"`
	Amount         decimal.Decimal `json:"monto"`
	Timestamp      time.Time       `json:"fecha"`
	Description    *string         `json:"descripcion,omitempty"`
}

// Expense описывает оплату поставщику из кассы (gasto).
type Expense struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"monto"`
	Supplier      string          `json:"proveedor"`
	Reason        string          `json:"motivo"`
	ReceiptNumber *string         `json:"remito,omitempty"`
	Timestamp     time.Time       `json:"fecha"`
}

// Shift описывает смену оператора кассы (turno). Поля закрытия заполняются один раз при закрытии.
type Shift struct {
	ID           string           `json:"id"`
	OperatorName string           `json:"usuario"`
	StartTime    time.Time        `json:"fechaInicio"`
	EndTime      *time.Time       `json:"fechaFin,omitempty"`
	OpeningCash  decimal.Decimal  `json:"montoInicial"`
	ClosingCash  *decimal.Decimal `json:"montoFinal,omitempty"`
	NetCollected *decimal.Decimal `json:"recaudacion,omitempty"`
	Closed       bool             `json:"cerrado"`
}

// Counters хранит монотонные счётчики номеров карт и изъятий.
type Counters struct {
	Card       int `json:"carnet"`
	Withdrawal int `json:"retiro"`
}

// State содержит полный документ состояния спортзала.
type State struct {
	Members     []Member     `json:"socios"`
	Withdrawals []Withdrawal `json:"retiros"`
	Expenses    []Expense    `json:"gastos"`
	CashIns     []CashIn     `json:"ingresos"`
	Shifts      []Shift      `json:"turnos"`
	Counters    Counters     `json:"contadores"`
}

// NewState возвращает пустое состояние со счётчиками, начинающимися с 1.
func NewState() State {
	return State{
		Members:     []Member{},
		Withdrawals: []Withdrawal{},
		Expenses:    []Expense{},
		CashIns:     []CashIn{},
		Shifts:      []Shift{},
		Counters:    Counters{Card: 1, Withdrawal: 1},
	}
}

// Normalize подставляет значения по умолчанию для отсутствующих ключей документа.
func (s *State) Normalize() {
	if s.Members == nil {
		s.Members = []Member{}
	}
	if s.Withdrawals == nil {
		s.Withdrawals = []Withdrawal{}
	}
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
	if s.CashIns == nil {
		s.CashIns = []CashIn{}
	}
	if s.Shifts == nil {
		s.Shifts = []Shift{}
	}
	if s.Counters.Card < 1 {
		s.Counters.Card = 1
	}
	if s.Counters.Withdrawal < 1 {
		s.Counters.Withdrawal = 1
	}
}

// OpenShiftIndex возвращает индекс открытой смены или -1.
// Если открытых смен несколько, возвращается последняя.
func (s State) OpenShiftIndex() int {
	for i := len(s.Shifts) - 1; i >= 0; i-- {
		if !s.Shifts[i].Closed {
			return i
		}
	}
	return -1
}

// OpenShift возвращает открытую смену, если она есть.
func (s State) OpenShift() (Shift, bool) {
	i := s.OpenShiftIndex()
	if i < 0 {
		return Shift{}, false
	}
	return s.Shifts[i], true
}

// FindMember ищет участника по точному совпадению номера карты.
func (s State) FindMember(cardNumber string) (Member, bool) {
	for _, m := range s.Members {
		if m.CardNumber == cardNumber {
			return m, true
		}
	}
	return Member{}, false
}

// MemberSummary содержит количество участников по статусам абонемента.
type MemberSummary struct {
	Total   int `json:"total"`
	Active  int `json:"vigentes"`
	Expired int `json:"vencidos"`
}

// ShiftStatus описывает открытую смену вместе с текущими наличными в кассе.
type ShiftStatus struct {
	Shift      Shift           `json:"turno"`
	CashOnHand decimal.Decimal `json:"efectivoEnCaja"`
}

// ShiftReport содержит итог закрытия смены: ожидаемые наличные перед закрытием и расхождение с объявленной суммой.
type ShiftReport struct {
	Shift        Shift           `json:"turno"`
	ExpectedCash decimal.Decimal `json:"efectivoEsperado"`
	Difference   decimal.Decimal `json:"diferencia"`
}
