// Package handler содержит HTTP-обработчики API приложения спортзала.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/apolo-gym/internal/model"
	"github.com/mmeshcher/apolo-gym/internal/store"
)

const defaultLimit = 10

// persistenceWarning отправляется в заголовке Warning, если изменение принято, но не сохранено.
const persistenceWarning = `199 - "state not persisted"`

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	AddMember(ctx context.Context, f store.MemberFields) (model.Member, error)
	AddCashIn(ctx context.Context, f store.CashInFields) (model.CashIn, error)
	AddWithdrawal(ctx context.Context, f store.WithdrawalFields) (model.Withdrawal, error)
	AddExpense(ctx context.Context, f store.ExpenseFields) (model.Expense, error)
	OpenShift(ctx context.Context, operatorName string, openingCash decimal.Decimal) (model.Shift, error)
	CloseShift(ctx context.Context, closingCash decimal.Decimal) (model.ShiftReport, error)
	Flush(ctx context.Context) error

	ListMembers(status model.MemberStatus) []model.Member
	FindMember(cardNumber string) (model.Member, error)
	MemberSummary() model.MemberSummary
	MemberCashIns(cardNumber string) ([]model.CashIn, error)
	CashOnHand() decimal.Decimal
	CurrentShift() (model.ShiftStatus, bool)
	RecentCashIns(limit int) []model.CashIn
	RecentWithdrawals(limit int) []model.Withdrawal
	RecentExpenses(limit int) []model.Expense
	RecentShifts(limit int) []model.Shift
}

// Handler реализует HTTP-обработчики API приложения спортзала.
type Handler struct {
	service        Service
	logger         *zap.Logger
	allowedOrigins []string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, allowedOrigins []string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("request error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// writeMutation отвечает результатом изменения. Ошибка сохранения не отменяет изменение:
// клиент получает созданную запись и предупреждение.
func (h *Handler) writeMutation(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		if !errors.Is(err, store.ErrPersistence) {
			h.writeError(w, err)
			return
		}
		h.logger.Warn("mutation accepted but not persisted", zap.Error(err))
		w.Header().Set("Warning", persistenceWarning)
	}
	h.writeJSON(w, status, v)
}

func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}

type memberRequest struct {
	FullName      string              `json:"nombreCompleto"`
	NationalID    string              `json:"dni"`
	StartDate     *model.Date         `json:"fechaInicio"`
	PaymentMethod model.PaymentMethod `json:"formaPago"`
	Amount        decimal.Decimal     `json:"monto"`
}

// AddMember регистрирует нового участника.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	f := store.MemberFields{
		FullName:      req.FullName,
		NationalID:    req.NationalID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	}
	if req.StartDate != nil {
		f.StartDate = *req.StartDate
	}

	m, err := h.service.AddMember(r.Context(), f)
	h.writeMutation(w, http.StatusCreated, m, err)
}

// ListMembers возвращает участников с актуальным статусом, при необходимости отфильтрованных по статусу.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	status := model.MemberStatus(r.URL.Query().Get("status"))
	if status != "" && status != model.StatusActive && status != model.StatusExpired {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.ListMembers(status))
}

// MemberSummary возвращает количество участников по статусам.
func (h *Handler) MemberSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.MemberSummary())
}

// GetMember ищет участника по номеру карты.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.FindMember(chi.URLParam(r, "card"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, m)
}

// GetMemberCashIns возвращает историю поступлений участника.
func (h *Handler) GetMemberCashIns(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.MemberCashIns(chi.URLParam(r, "card"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

type cashInRequest struct {
	CardNumber    string              `json:"carnet"`
	Amount        decimal.Decimal     `json:"monto"`
	PaymentMethod model.PaymentMethod `json:"formaPago"`
}

// AddCashIn регистрирует поступление от участника.
func (h *Handler) AddCashIn(w http.ResponseWriter, r *http.Request) {
	var req cashInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.AddCashIn(r.Context(), store.CashInFields{
		CardNumber:    req.CardNumber,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	h.writeMutation(w, http.StatusCreated, c, err)
}

// ListCashIns возвращает последние поступления.
func (h *Handler) ListCashIns(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.RecentCashIns(limit))
}

type withdrawalRequest struct {
	Amount      decimal.Decimal `json:"monto"`
	Description *string         `json:"descripcion"`
}

// AddWithdrawal регистрирует изъятие наличных.
func (h *Handler) AddWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	wd, err := h.service.AddWithdrawal(r.Context(), store.WithdrawalFields{
		Amount:      req.Amount,
		Description: req.Description,
	})
	h.writeMutation(w, http.StatusCreated, wd, err)
}

// ListWithdrawals возвращает последние изъятия.
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.RecentWithdrawals(limit))
}

type expenseRequest struct {
	Amount        decimal.Decimal `json:"monto"`
	Supplier      string          `json:"proveedor"`
	Reason        string          `json:"motivo"`
	ReceiptNumber *string         `json:"remito"`
}

// AddExpense регистрирует расход.
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	e, err := h.service.AddExpense(r.Context(), store.ExpenseFields{
		Amount:        req.Amount,
		Supplier:      req.Supplier,
		Reason:        req.Reason,
		ReceiptNumber: req.ReceiptNumber,
	})
	h.writeMutation(w, http.StatusCreated, e, err)
}

// ListExpenses возвращает последние расходы.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.RecentExpenses(limit))
}

type openShiftRequest struct {
	OperatorName string          `json:"usuario"`
	OpeningCash  decimal.Decimal `json:"montoInicial"`
}

// OpenShift открывает смену.
func (h *Handler) OpenShift(w http.ResponseWriter, r *http.Request) {
	var req openShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sh, err := h.service.OpenShift(r.Context(), req.OperatorName, req.OpeningCash)
	h.writeMutation(w, http.StatusCreated, sh, err)
}

type closeShiftRequest struct {
	ClosingCash decimal.Decimal `json:"montoFinal"`
}

// CloseShift закрывает открытую смену.
func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	var req closeShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	report, err := h.service.CloseShift(r.Context(), req.ClosingCash)
	h.writeMutation(w, http.StatusOK, report, err)
}

// CurrentShift возвращает открытую смену и наличные в кассе.
func (h *Handler) CurrentShift(w http.ResponseWriter, r *http.Request) {
	status, ok := h.service.CurrentShift()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}

// ListShifts возвращает последние смены.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.RecentShifts(limit))
}

type cashResponse struct {
	CashOnHand decimal.Decimal `json:"efectivoEnCaja"`
}

// CashOnHand возвращает наличные в кассе открытой смены.
func (h *Handler) CashOnHand(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, cashResponse{CashOnHand: h.service.CashOnHand()})
}

// Flush повторяет сохранение текущего состояния.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Flush(r.Context()); err != nil {
		h.logger.Error("flush state error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
