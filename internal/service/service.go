// Package service реализует бизнес-логику приложения спортзала.
// Service владеет текущим состоянием и применяет изменения по одному, сохраняя документ после каждого.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/apolo-gym/internal/ledger"
	"github.com/mmeshcher/apolo-gym/internal/model"
	"github.com/mmeshcher/apolo-gym/internal/store"
)

// DefaultRecentLimit задаёт количество последних записей, возвращаемых списками по умолчанию.
const DefaultRecentLimit = 10

// Repository описывает контракт шлюза хранения документа состояния.
type Repository interface {
	Close() error
	Load(ctx context.Context) (*model.State, error)
	Save(ctx context.Context, s model.State) error
}

// Service содержит бизнес-логику приложения спортзала.
type Service struct {
	mu     sync.Mutex
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	state model.State
	dirty bool
}

// Option настраивает Service.
type Option func(*Service)

// WithClock задаёт источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator задаёт генератор идентификаторов сущностей.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService создаёт новый сервис с пустым состоянием и указанным шлюзом хранения.
func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		state:  model.NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Load загружает состояние из хранилища. Отсутствующий документ даёт пустое состояние.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load state: %w", store.ErrPersistence, err)
	}

	st := model.NewState()
	if loaded != nil {
		st = *loaded
		st.Normalize()
	}

	s.state = store.RefreshStatuses(st, s.now())
	s.dirty = false

	return nil
}

// apply применяет изменение к текущему состоянию и сохраняет результат.
// Ошибка сохранения не откатывает состояние в памяти: оно помечается несохранённым.
func (s *Service) apply(ctx context.Context, mutate func(st model.State, now time.Time) (model.State, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := mutate(s.state, s.now())
	if err != nil {
		return err
	}

	s.state = next
	s.dirty = true

	return s.saveLocked(ctx)
}

func (s *Service) saveLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.state); err != nil {
		s.logger.Error("save state error", zap.Error(err))
		return fmt.Errorf("%w: save state: %w", store.ErrPersistence, err)
	}
	s.dirty = false
	return nil
}

// AddMember регистрирует нового участника.
func (s *Service) AddMember(ctx context.Context, f store.MemberFields) (model.Member, error) {
	var created model.Member
	err := s.apply(ctx, func(st model.State, now time.Time) (model.State, error) {
		next, m, err := store.AddMember(st, f, s.newID(), now)
		created = m
		return next, err
	})
	return created, err
}

// AddCashIn регистрирует поступление от участника.
func (s *Service) AddCashIn(ctx context.Context, f store.CashInFields) (model.CashIn, error) {
	var created model.CashIn
	err := s.apply(ctx, func(st model.State, now time.Time) (model.State, error) {
		next, c, err := store.AddCashIn(st, f, s.newID(), now)
		created = c
		return next, err
	})
	return created, err
}

// AddWithdrawal регистрирует изъятие наличных.
func (s *Service) AddWithdrawal(ctx context.Context, f store.WithdrawalFields) (model.Withdrawal, error) {
	var created model.Withdrawal
	err := s.apply(ctx, func(st model.State, now time.Time) (model.State, error) {
		next, w, err := store.AddWithdrawal(st, f, s.newID(), now)
		created = w
		return next, err
	})
	return created, err
}

// AddExpense регистрирует расход.
func (s *Service) AddExpense(ctx context.Context, f store.ExpenseFields) (model.Expense, error) {
	var created model.Expense
	err := s.apply(ctx, func(st model.State, now time.Time) (model.State, error) {
		next, e, err := store.AddExpense(st, f, s.newID(), now)
		created = e
		return next, err
	})
	return created, err
}

// OpenShift открывает смену оператора.
func (s *Service) OpenShift(ctx context.Context, operatorName string, openingCash decimal.Decimal) (model.Shift, error) {
	var created model.Shift
	err := s.apply(ctx, func(st model.State, now time.Time) (model.State, error) {
		next, sh, err := store.OpenShift(st, operatorName, openingCash, s.newID(), now)
		created = sh
		return next, err
	})
	return created, err
}

// CloseShift закрывает открытую смену и возвращает отчёт с ожидаемыми наличными на момент закрытия.
func (s *Service) CloseShift(ctx context.Context, closingCash decimal.Decimal) (model.ShiftReport, error) {
	var report model.ShiftReport
	err := s.apply(ctx, func(st model.State, now time.Time) (model.State, error) {
		expected := ledger.StateCashOnHand(st)
		next, sh, err := store.CloseShift(st, closingCash, now)
		if err != nil {
			return next, err
		}
		report = model.ShiftReport{
			Shift:        sh,
			ExpectedCash: expected,
			Difference:   closingCash.Sub(expected),
		}
		return next, nil
	})
	return report, err
}

// Flush повторно сохраняет текущее состояние.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(ctx)
}

// Dirty сообщает, есть ли в памяти изменения, которые не удалось сохранить.
func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// StartPersistenceRetries периодически повторяет сохранение, пока состояние не сохранено.
// Блокируется до отмены контекста.
func (s *Service) StartPersistenceRetries(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.retrySave(ctx)
		}
	}
}

func (s *Service) retrySave(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return
	}
	if err := s.saveLocked(ctx); err == nil {
		s.logger.Info("pending state saved")
	}
}

// Snapshot возвращает копию текущего состояния с актуальными статусами участников.
func (s *Service) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return store.RefreshStatuses(s.state, s.now())
}

// ListMembers возвращает участников, начиная с последней выданной карты.
// Пустой статус означает всех участников.
func (s *Service) ListMembers(status model.MemberStatus) []model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	res := make([]model.Member, 0, len(s.state.Members))
	for i := len(s.state.Members) - 1; i >= 0; i-- {
		m := ledger.WithStatus(s.state.Members[i], now)
		if status != "" && m.Status != status {
			continue
		}
		res = append(res, m)
	}

	return res
}

// FindMember ищет участника по номеру карты.
func (s *Service) FindMember(cardNumber string) (model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card := strings.TrimSpace(cardNumber)
	m, ok := s.state.FindMember(card)
	if !ok {
		return model.Member{}, fmt.Errorf("%w: no member with card %s", store.ErrNotFound, card)
	}

	return ledger.WithStatus(m, s.now()), nil
}

// MemberSummary возвращает количество участников по статусам.
func (s *Service) MemberSummary() model.MemberSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	summary := model.MemberSummary{Total: len(s.state.Members)}
	for _, m := range s.state.Members {
		if ledger.EvaluateStatus(m.StartDate, now) == model.StatusActive {
			summary.Active++
		} else {
			summary.Expired++
		}
	}

	return summary
}

// MemberCashIns возвращает историю поступлений участника, начиная с последнего.
func (s *Service) MemberCashIns(cardNumber string) ([]model.CashIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card := strings.TrimSpace(cardNumber)
	if _, ok := s.state.FindMember(card); !ok {
		return nil, fmt.Errorf("%w: no member with card %s", store.ErrNotFound, card)
	}

	res := []model.CashIn{}
	for i := len(s.state.CashIns) - 1; i >= 0; i-- {
		if s.state.CashIns[i].CardNumber == card {
			res = append(res, s.state.CashIns[i])
		}
	}

	return res, nil
}

// CashOnHand возвращает наличные в кассе открытой смены.
func (s *Service) CashOnHand() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ledger.StateCashOnHand(s.state)
}

// CurrentShift возвращает открытую смену и наличные в кассе.
func (s *Service) CurrentShift() (model.ShiftStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.state.OpenShift()
	if !ok {
		return model.ShiftStatus{}, false
	}

	return model.ShiftStatus{
		Shift:      sh,
		CashOnHand: ledger.CashOnHand(&sh, s.state.CashIns, s.state.Withdrawals, s.state.Expenses),
	}, true
}

// RecentCashIns возвращает последние поступления, начиная с новейшего.
func (s *Service) RecentCashIns(limit int) []model.CashIn {
	s.mu.Lock()
	defer s.mu.Unlock()

	return recent(s.state.CashIns, limit)
}

// RecentWithdrawals возвращает последние изъятия, начиная с новейшего.
func (s *Service) RecentWithdrawals(limit int) []model.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return recent(s.state.Withdrawals, limit)
}

// RecentExpenses возвращает последние расходы, начиная с новейшего.
func (s *Service) RecentExpenses(limit int) []model.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	return recent(s.state.Expenses, limit)
}

// RecentShifts возвращает последние смены, начиная с новейшей.
func (s *Service) RecentShifts(limit int) []model.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()

	return recent(s.state.Shifts, limit)
}

// recent возвращает не более limit последних элементов в обратном порядке, при limit <= 0 возвращает все.
func recent[T any](items []T, limit int) []T {
	start := 0
	if limit > 0 && len(items) > limit {
		start = len(items) - limit
	}

	res := slices.Clone(items[start:])
	slices.Reverse(res)
	if res == nil {
		res = []T{}
	}

	return res
}
