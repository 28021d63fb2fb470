package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chargeKey struct{ account, session string }

// memLedger mirrors the conditional SQL updates of repository.LedgerRepository.
type memLedger struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	charges  map[chargeKey]decimal.Decimal
}

func newMemLedger() *memLedger {
	return &memLedger{balances: map[string]decimal.Decimal{}, charges: map[chargeKey]decimal.Decimal{}}
}

func (l *memLedger) set(id string, v int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[id] = decimal.NewFromInt(v)
}

func (l *memLedger) get(id string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

func (l *memLedger) Balance(_ context.Context, id string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[id]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	return b, nil
}

func (l *memLedger) Credit(_ context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[id]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	l.balances[id] = b.Add(amount)
	return l.balances[id], nil
}

func (l *memLedger) DebitClamped(_ context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[id]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	l.balances[id] = decimal.Max(b.Sub(amount), decimal.Zero)
	return l.balances[id], nil
}

func (l *memLedger) ChargeSession(_ context.Context, account, session string, amount decimal.Decimal) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := chargeKey{account, session}
	if _, ok := l.charges[key]; ok {
		return false, nil
	}
	b := l.balances[account]
	if b.LessThan(amount) {
		return false, repository.ErrInsufficientFunds
	}
	l.balances[account] = b.Sub(amount)
	l.charges[key] = amount
	return true, nil
}

func (l *memLedger) IsSessionCharged(_ context.Context, account, session string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.charges[chargeKey{account, session}]
	return ok, nil
}

type memPhotos struct {
	mu      sync.Mutex
	records []models.PhotoRecord
	failErr error
}

func (p *memPhotos) Create(_ context.Context, photo *models.PhotoRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failErr != nil {
		return p.failErr
	}
	p.records = append(p.records, *photo)
	return nil
}

func (p *memPhotos) List(_ context.Context, f repository.PhotoFilter) ([]models.PhotoRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.PhotoRecord
	for _, r := range p.records {
		if f.AccountID != "" && r.AccountID != f.AccountID {
			continue
		}
		if !f.Day.IsZero() && r.CreatedAt.Format("2006-01-02") != f.Day.Format("2006-01-02") {
			continue
		}
		if f.Search != "" && r.AccountID != f.Search && !strings.Contains(r.AccountName, f.Search) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *memPhotos) Count(context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records), nil
}

func (p *memPhotos) len() int {
	n, _ := p.Count(context.Background())
	return n
}

type stubTransformer struct {
	mu     sync.Mutex
	calls  int
	result string
	err    error
}

func (t *stubTransformer) Transform(context.Context, string, string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return t.result, t.err
}

func (t *stubTransformer) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// memRecharges shares the ledger so approval credits the same balances.
type memRecharges struct {
	mu     sync.Mutex
	ledger *memLedger
	byID   map[string]*models.RechargeRequest
}

func newMemRecharges(ledger *memLedger) *memRecharges {
	return &memRecharges{ledger: ledger, byID: map[string]*models.RechargeRequest{}}
}

func (m *memRecharges) Create(_ context.Context, req *models.RechargeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.Method == req.Method && r.TrxID == req.TrxID {
			return repository.ErrDuplicate
		}
	}
	cp := *req
	m.byID[req.ID] = &cp
	return nil
}

func (m *memRecharges) List(_ context.Context, accountID string, status models.RechargeStatus) ([]models.RechargeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RechargeRequest
	for _, r := range m.byID {
		if (accountID == "" || r.AccountID == accountID) && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRecharges) CountPending(ctx context.Context) (int, error) {
	list, err := m.List(ctx, "", models.RechargePending)
	return len(list), err
}

func (m *memRecharges) Approve(ctx context.Context, id string) (*models.RechargeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.Status != models.RechargePending {
		return nil, repository.ErrNotPending
	}
	if _, err := m.ledger.Credit(ctx, r.AccountID, r.Amount); err != nil {
		return nil, err
	}
	r.Status = models.RechargeApproved
	cp := *r
	return &cp, nil
}

func (m *memRecharges) Reject(_ context.Context, id, reason string) (*models.RechargeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.Status != models.RechargePending {
		return nil, repository.ErrNotPending
	}
	r.Status = models.RechargeRejected
	r.RejectionReason = reason
	cp := *r
	return &cp, nil
}

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*models.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]*models.Account{}}
}

func (m *memAccounts) Create(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == a.Email || existing.ReferralCode == a.ReferralCode {
			return repository.ErrDuplicate
		}
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) FindByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) List(_ context.Context, search string) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.byID {
		if search == "" || strings.Contains(a.Name, search) || strings.Contains(a.Email, search) || a.ReferralCode == strings.ToUpper(search) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAccounts) update(id string, fn func(*models.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return errors.New("no such account")
	}
	fn(a)
	return nil
}

func (m *memAccounts) SetSuspended(_ context.Context, id string, suspended bool) error {
	return m.update(id, func(a *models.Account) { a.IsSuspended = suspended })
}

func (m *memAccounts) SetNotice(_ context.Context, id, notice string) error {
	return m.update(id, func(a *models.Account) {
		a.PersonalNotice = notice
		a.HasUnreadNotice = notice != ""
	})
}

func (m *memAccounts) MarkNoticeRead(_ context.Context, id string) error {
	return m.update(id, func(a *models.Account) { a.HasUnreadNotice = false })
}

func (m *memAccounts) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) NotifyRechargeSubmitted(_ context.Context, req *models.RechargeRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req.ID)
	return n.err
}
