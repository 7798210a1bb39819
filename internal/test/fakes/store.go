// Package fakes holds in-memory stand-ins for the Postgres store and the external
// services, for exercising the services and handlers without a database.
package fakes

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"layertext-backend/internal/models"
)

type txKey struct{}

// journal collects undo steps for the writes made inside one transaction.
type journal struct {
	undo []func()
}

// Store implements every store interface the services depend on, plus Transactor.
// Conditional writes are evaluated under one mutex, matching the single-statement
// guarantees of the SQL store.
type Store struct {
	mu           sync.Mutex
	balances     map[string]models.CreditBalance
	transactions []models.CreditTransaction
	uploads      map[uuid.UUID]models.Upload
	payments     map[string]models.PaymentRecord
	exports      []models.Export

	// Set these to make the matching call fail.
	FailEnsure    error
	FailIncrement error
	FailDecrement error
	FailComplete  error
	FailRelease   error
	FailCreate    error
	FailExport    error
}

func NewStore() *Store {
	return &Store{
		balances: make(map[string]models.CreditBalance),
		uploads:  make(map[uuid.UUID]models.Upload),
		payments: make(map[string]models.PaymentRecord),
	}
}

// WithinTransaction runs fn and undoes its writes if it returns an error. Nested
// calls join the outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}
	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// onRollback must be called with s.mu held.
func (s *Store) onRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

func (s *Store) appendTransaction(ctx context.Context, t models.CreditTransaction) {
	s.transactions = append(s.transactions, t)
	s.onRollback(ctx, func() {
		for i := range s.transactions {
			if s.transactions[i].ID == t.ID {
				s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
				return
			}
		}
	})
}

func (s *Store) putBalance(ctx context.Context, b models.CreditBalance) {
	prev, existed := s.balances[b.UserID]
	s.balances[b.UserID] = b
	s.onRollback(ctx, func() {
		if existed {
			s.balances[b.UserID] = prev
		} else {
			delete(s.balances, b.UserID)
		}
	})
}

func (s *Store) putUpload(ctx context.Context, u models.Upload) {
	prev, existed := s.uploads[u.ID]
	s.uploads[u.ID] = u
	s.onRollback(ctx, func() {
		if existed {
			s.uploads[u.ID] = prev
		} else {
			delete(s.uploads, u.ID)
		}
	})
}

// SetCredits overwrites a user's balance, provisioning the row if needed.
func (s *Store) SetCredits(userID string, credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	b, ok := s.balances[userID]
	if !ok {
		b = models.CreditBalance{UserID: userID, CreatedAt: now}
	}
	b.Credits = credits
	b.UpdatedAt = now
	s.balances[userID] = b
}

// Credits reports the stored balance and whether the row exists.
func (s *Store) Credits(userID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	return b.Credits, ok
}

// Transactions returns every audit row for userID, oldest first.
func (s *Store) Transactions(userID string) []models.CreditTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CreditTransaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// Upload returns the stored row regardless of owner.
func (s *Store) Upload(id uuid.UUID) (models.Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	return u, ok
}

// PutUpload stores u as-is, bypassing the state machine.
func (s *Store) PutUpload(u models.Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[u.ID] = u
}

func (s *Store) Payments() []models.PaymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PaymentRecord, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	return out
}

func (s *Store) ExportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exports)
}

// Credits

func (s *Store) GetCreditBalance(ctx context.Context, userID string) (*models.CreditBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return nil, fmt.Errorf("credit balance: %w", models.ErrRecordNotFound)
	}
	return &b, nil
}

func (s *Store) EnsureCreditBalance(ctx context.Context, userID string, startingCredits int) (*models.CreditBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEnsure != nil {
		return nil, s.FailEnsure
	}
	if b, ok := s.balances[userID]; ok {
		return &b, nil
	}
	now := time.Now()
	b := models.CreditBalance{UserID: userID, Credits: startingCredits, CreatedAt: now, UpdatedAt: now}
	s.putBalance(ctx, b)
	s.appendTransaction(ctx, models.CreditTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		Amount:       startingCredits,
		BalanceAfter: startingCredits,
		Reason:       models.CreditReasonProvision,
		CreatedAt:    now,
	})
	return &b, nil
}

func (s *Store) DecrementCredits(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDecrement != nil {
		return 0, s.FailDecrement
	}
	b, ok := s.balances[userID]
	if !ok || b.Credits < amount {
		return 0, fmt.Errorf("debit %d credits: %w", amount, models.ErrConditionFailed)
	}
	return s.adjust(ctx, b, -amount, reason, referenceID), nil
}

func (s *Store) IncrementCredits(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailIncrement != nil {
		return 0, s.FailIncrement
	}
	b, ok := s.balances[userID]
	if !ok {
		return 0, fmt.Errorf("credit balance: %w", models.ErrRecordNotFound)
	}
	return s.adjust(ctx, b, amount, reason, referenceID), nil
}

func (s *Store) adjust(ctx context.Context, b models.CreditBalance, delta int, reason, referenceID string) int {
	b.Credits += delta
	b.UpdatedAt = time.Now()
	s.putBalance(ctx, b)
	s.appendTransaction(ctx, models.CreditTransaction{
		ID:           uuid.New(),
		UserID:       b.UserID,
		Amount:       delta,
		BalanceAfter: b.Credits,
		Reason:       reason,
		ReferenceID:  referenceID,
		CreatedAt:    b.UpdatedAt,
	})
	return b.Credits
}

func (s *Store) ListCreditTransactions(ctx context.Context, userID string, limit, offset int) ([]models.CreditTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CreditTransaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].UserID == userID {
			out = append(out, s.transactions[i])
		}
	}
	return page(out, limit, offset), nil
}

// Uploads

func (s *Store) CreateUpload(ctx context.Context, upload *models.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	now := time.Now()
	upload.Status = models.UploadStatusPending
	upload.CreditConsumed = false
	upload.CreatedAt = now
	upload.UpdatedAt = now
	s.putUpload(ctx, *upload)
	return nil
}

func (s *Store) GetUpload(ctx context.Context, uploadID uuid.UUID, userID string) (*models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[uploadID]
	if !ok || u.UserID != userID {
		return nil, fmt.Errorf("upload: %w", models.ErrRecordNotFound)
	}
	return &u, nil
}

func (s *Store) ListUploads(ctx context.Context, userID string, limit, offset int) ([]models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Upload
	for _, u := range s.uploads {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (s *Store) AcquireUpload(ctx context.Context, uploadID uuid.UUID, userID string, attemptID uuid.UUID, lease time.Duration) (*models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	u, ok := s.uploads[uploadID]
	if !ok || u.UserID != userID {
		return nil, fmt.Errorf("acquire upload %s: %w", uploadID, models.ErrConditionFailed)
	}
	expired := u.Status == models.UploadStatusProcessing && u.LeaseExpiresAt.Valid && u.LeaseExpiresAt.Time.Before(now)
	if u.Status != models.UploadStatusPending && !expired {
		return nil, fmt.Errorf("acquire upload %s: %w", uploadID, models.ErrConditionFailed)
	}
	u.Status = models.UploadStatusProcessing
	u.AttemptID = uuid.NullUUID{UUID: attemptID, Valid: true}
	u.LeaseExpiresAt = sql.NullTime{Time: now.Add(lease), Valid: true}
	u.UpdatedAt = now
	s.putUpload(ctx, u)
	return &u, nil
}

func (s *Store) CompleteUpload(ctx context.Context, uploadID, attemptID uuid.UUID, processedImageURL string) (*models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailComplete != nil {
		return nil, s.FailComplete
	}
	u, ok := s.uploads[uploadID]
	if !ok || !s.holds(u, attemptID) {
		return nil, fmt.Errorf("complete upload %s: %w", uploadID, models.ErrConditionFailed)
	}
	u.Status = models.UploadStatusComplete
	u.ProcessedImageURL = sql.NullString{String: processedImageURL, Valid: true}
	u.CreditConsumed = true
	u.AttemptID = uuid.NullUUID{}
	u.LeaseExpiresAt = sql.NullTime{}
	u.UpdatedAt = time.Now()
	s.putUpload(ctx, u)
	return &u, nil
}

func (s *Store) ReleaseUpload(ctx context.Context, uploadID, attemptID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRelease != nil {
		return false, s.FailRelease
	}
	u, ok := s.uploads[uploadID]
	if !ok || !s.holds(u, attemptID) {
		return false, nil
	}
	u.Status = models.UploadStatusPending
	u.AttemptID = uuid.NullUUID{}
	u.LeaseExpiresAt = sql.NullTime{}
	u.UpdatedAt = time.Now()
	s.putUpload(ctx, u)
	return true, nil
}

func (s *Store) holds(u models.Upload, attemptID uuid.UUID) bool {
	return u.Status == models.UploadStatusProcessing && u.AttemptID.Valid && u.AttemptID.UUID == attemptID
}

func (s *Store) CountConsumedCredits(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.uploads {
		if u.UserID == userID && u.CreditConsumed {
			n++
		}
	}
	return n, nil
}

// Payments

func (s *Store) InsertPayment(ctx context.Context, payment *models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.IdempotencyKey]; ok {
		return fmt.Errorf("payment %s: %w", payment.IdempotencyKey, models.ErrDuplicateKey)
	}
	payment.CreatedAt = time.Now()
	key := payment.IdempotencyKey
	s.payments[key] = *payment
	s.onRollback(ctx, func() { delete(s.payments, key) })
	return nil
}

func (s *Store) ListPayments(ctx context.Context, userID string, limit, offset int) ([]models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentRecord
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// Exports

func (s *Store) CreateExport(ctx context.Context, export *models.Export) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailExport != nil {
		return s.FailExport
	}
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now()
	}
	s.exports = append(s.exports, *export)
	return nil
}

// AddExport stores a pre-built row, keeping its CreatedAt.
func (s *Store) AddExport(export models.Export) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, export)
}

func (s *Store) ListExports(ctx context.Context, userID string, limit, offset int) ([]models.Export, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Export
	for i := len(s.exports) - 1; i >= 0; i-- {
		if s.exports[i].UserID == userID {
			out = append(out, s.exports[i])
		}
	}
	return page(out, limit, offset), nil
}

func (s *Store) CountExports(ctx context.Context, userID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.exports {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DailyExportCounts(ctx context.Context, userID string, since time.Time) ([]models.DailyExportCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[time.Time]int)
	for _, e := range s.exports {
		if e.UserID != userID || e.CreatedAt.Before(since) {
			continue
		}
		t := e.CreatedAt.UTC()
		counts[time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)]++
	}
	out := make([]models.DailyExportCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, models.DailyExportCount{Day: day, Exports: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
