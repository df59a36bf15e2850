package service_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/flash-wallet-ledger/internal/ledger_engine/components"
	"github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory stand-in for Postgres. RunInTx holds a single lock for the
// whole body and restores a snapshot when the body fails, which gives the engine the same
// all-or-nothing view it gets from a real transaction.
type memStore struct {
	mu sync.Mutex

	accounts      map[uuid.UUID]account.Account
	records       []transaction.Record
	requests      map[uuid.UUID]request.Request
	requestOrder  []uuid.UUID
	notifications []notification.Notification
	outbox        []outbox.Message

	depositMethods    map[uuid.UUID]catalog.DepositMethod
	withdrawalMethods map[uuid.UUID]catalog.WithdrawalMethod
	services          map[uuid.UUID]catalog.Service
}

func newMemStore() *memStore {
	return &memStore{
		accounts:          make(map[uuid.UUID]account.Account),
		requests:          make(map[uuid.UUID]request.Request),
		depositMethods:    make(map[uuid.UUID]catalog.DepositMethod),
		withdrawalMethods: make(map[uuid.UUID]catalog.WithdrawalMethod),
		services:          make(map[uuid.UUID]catalog.Service),
	}
}

type snapshot struct {
	accounts      map[uuid.UUID]account.Account
	records       []transaction.Record
	requests      map[uuid.UUID]request.Request
	requestOrder  []uuid.UUID
	notifications []notification.Notification
	outbox        []outbox.Message
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		accounts:      make(map[uuid.UUID]account.Account, len(s.accounts)),
		records:       append([]transaction.Record(nil), s.records...),
		requests:      make(map[uuid.UUID]request.Request, len(s.requests)),
		requestOrder:  append([]uuid.UUID(nil), s.requestOrder...),
		notifications: append([]notification.Notification(nil), s.notifications...),
		outbox:        append([]outbox.Message(nil), s.outbox...),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.records = snap.records
	s.requests = snap.requests
	s.requestOrder = snap.requestOrder
	s.notifications = snap.notifications
	s.outbox = snap.outbox
}

func (s *memStore) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// read runs fn under the store lock for assertions made by tests.
func (s *memStore) read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *memStore) balance(id uuid.UUID) decimal.Decimal {
	var b decimal.Decimal
	s.read(func() { b = s.accounts[id].Balance })
	return b
}

func (s *memStore) recordsOf(id uuid.UUID) []transaction.Record {
	var out []transaction.Record
	s.read(func() {
		for _, r := range s.records {
			if r.AccountID == id {
				out = append(out, r)
			}
		}
	})
	return out
}

func (s *memStore) notificationsOf(id uuid.UUID) []notification.Notification {
	var out []notification.Notification
	s.read(func() {
		for _, n := range s.notifications {
			if n.AccountID == id {
				out = append(out, n)
			}
		}
	})
	return out
}

func (s *memStore) events() []*outbox.LedgerEvent {
	var out []*outbox.LedgerEvent
	s.read(func() {
		for _, m := range s.outbox {
			event, err := m.Event()
			if err == nil {
				out = append(out, event)
			}
		}
	})
	return out
}

func (s *memStore) storedRequest(id uuid.UUID) request.Request {
	var r request.Request
	s.read(func() { r = s.requests[id] })
	return r
}

// accounts

type memAccounts struct{ s *memStore }

func (r memAccounts) WithTx(pgx.Tx) account.Repository { return r }

func (r memAccounts) Create(ctx context.Context, acc *account.Account) error {
	for _, existing := range r.s.accounts {
		switch {
		case existing.Username == acc.Username:
			return account.ErrDuplicateAccount{Field: "username"}
		case existing.Email == acc.Email:
			return account.ErrDuplicateAccount{Field: "email"}
		case existing.CustomCode == acc.CustomCode:
			return account.ErrDuplicateAccount{Field: "custom_code"}
		}
	}
	r.s.accounts[acc.ID] = *acc
	return nil
}

func (r memAccounts) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, ok := r.s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return &acc, nil
}

func (r memAccounts) Resolve(ctx context.Context, query string) (*account.Account, error) {
	code, username := account.ParseLookup(query)
	for _, acc := range r.s.accounts {
		if (code != "" && acc.CustomCode == code) || (username != "" && strings.EqualFold(acc.Username, username)) {
			found := acc
			return &found, nil
		}
	}
	return nil, nil
}

func (r memAccounts) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	out := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		acc, ok := r.s.accounts[id]
		if !ok {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		out[id] = &acc
	}
	return out, nil
}

func (r memAccounts) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	acc, ok := r.s.accounts[id]
	if !ok {
		return decimal.Zero, account.ErrAccountNotFound{AccountID: id}
	}
	if acc.Balance.LessThan(amount) {
		return decimal.Zero, account.ErrInsufficientFunds
	}
	acc.Balance = acc.Balance.Sub(amount)
	r.s.accounts[id] = acc
	return acc.Balance, nil
}

func (r memAccounts) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	acc, ok := r.s.accounts[id]
	if !ok {
		return decimal.Zero, account.ErrAccountNotFound{AccountID: id}
	}
	acc.Balance = acc.Balance.Add(amount)
	r.s.accounts[id] = acc
	return acc.Balance, nil
}

func (r memAccounts) SetPinHash(ctx context.Context, id uuid.UUID, previous *string, pinHash string) error {
	acc, ok := r.s.accounts[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	if (acc.PinHash == nil) != (previous == nil) || (previous != nil && *acc.PinHash != *previous) {
		return account.ErrPinChanged
	}
	acc.PinHash = &pinHash
	r.s.accounts[id] = acc
	return nil
}

func (r memAccounts) MarkVerified(ctx context.Context, id uuid.UUID) error {
	acc, ok := r.s.accounts[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.Verified = true
	r.s.accounts[id] = acc
	return nil
}

func (r memAccounts) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.s.accounts[id]; !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	delete(r.s.accounts, id)
	return nil
}

// transaction records

type memRecords struct{ s *memStore }

func (r memRecords) WithTx(pgx.Tx) transaction.Repository { return r }

func (r memRecords) Create(ctx context.Context, rec *transaction.Record) error {
	r.s.records = append(r.s.records, *rec)
	return nil
}

func (r memRecords) SettleByRequest(ctx context.Context, requestID uuid.UUID, status transaction.Status) error {
	for i, rec := range r.s.records {
		if rec.RequestID != nil && *rec.RequestID == requestID && rec.Status == transaction.StatusPending {
			r.s.records[i].Status = status
			return nil
		}
	}
	return transaction.ErrNoPendingRecord{RequestID: requestID}
}

func (r memRecords) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Record, error) {
	out := []*transaction.Record{}
	for i := len(r.s.records) - 1; i >= 0; i-- {
		if r.s.records[i].AccountID == accountID {
			rec := r.s.records[i]
			out = append(out, &rec)
		}
	}
	return page(out, limit, offset), nil
}

func (r memRecords) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var n int64
	for _, rec := range r.s.records {
		if rec.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

// review requests

type memRequests struct{ s *memStore }

func (r memRequests) WithTx(pgx.Tx) request.Repository { return r }

func (r memRequests) Create(ctx context.Context, req *request.Request) error {
	if req.Type == request.TypeKyc {
		for _, existing := range r.s.requests {
			if existing.AccountID == req.AccountID && existing.Type == request.TypeKyc && existing.Status == request.StatusPending {
				return shared.NewValidationError("kyc", "a verification request is already pending")
			}
		}
	}
	r.s.requests[req.ID] = *req
	r.s.requestOrder = append(r.s.requestOrder, req.ID)
	return nil
}

func (r memRequests) GetByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	req, ok := r.s.requests[id]
	if !ok {
		return nil, request.ErrRequestNotFound{RequestID: id}
	}
	return &req, nil
}

func (r memRequests) LockForUpdate(ctx context.Context, id uuid.UUID, t request.Type) (*request.Request, error) {
	req, ok := r.s.requests[id]
	if !ok || req.Type != t {
		return nil, request.ErrRequestNotFound{RequestID: id}
	}
	return &req, nil
}

func (r memRequests) SaveReview(ctx context.Context, req *request.Request) error {
	stored, ok := r.s.requests[req.ID]
	if !ok {
		return request.ErrRequestNotFound{RequestID: req.ID}
	}
	if stored.Status != request.StatusPending {
		return request.ErrAlreadyProcessed{RequestID: req.ID, Status: stored.Status}
	}
	r.s.requests[req.ID] = *req
	return nil
}

func (r memRequests) filter(keep func(request.Request) bool) []*request.Request {
	out := []*request.Request{}
	for i := len(r.s.requestOrder) - 1; i >= 0; i-- {
		req := r.s.requests[r.s.requestOrder[i]]
		if keep(req) {
			out = append(out, &req)
		}
	}
	return out
}

func (r memRequests) ListPending(ctx context.Context, t request.Type, limit, offset int) ([]*request.Request, error) {
	return page(r.filter(func(req request.Request) bool {
		return req.Type == t && req.Status == request.StatusPending
	}), limit, offset), nil
}

func (r memRequests) CountPending(ctx context.Context, t request.Type) (int64, error) {
	items, _ := r.ListPending(ctx, t, len(r.s.requests)+1, 0)
	return int64(len(items)), nil
}

func (r memRequests) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.Request, error) {
	return page(r.filter(func(req request.Request) bool { return req.AccountID == accountID }), limit, offset), nil
}

func (r memRequests) HasPending(ctx context.Context, accountID uuid.UUID, t request.Type) (bool, error) {
	items := r.filter(func(req request.Request) bool {
		return req.AccountID == accountID && req.Type == t && req.Status == request.StatusPending
	})
	return len(items) > 0, nil
}

// notifications

type memNotifications struct{ s *memStore }

func (r memNotifications) WithTx(pgx.Tx) notification.Repository { return r }

func (r memNotifications) Create(ctx context.Context, n *notification.Notification) error {
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r memNotifications) ListByAccount(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	out := []*notification.Notification{}
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.AccountID == accountID && (!unreadOnly || !n.Read) {
			out = append(out, &n)
		}
	}
	return page(out, limit, offset), nil
}

func (r memNotifications) CountUnread(ctx context.Context, accountID uuid.UUID) (int64, error) {
	items, _ := r.ListByAccount(ctx, accountID, true, len(r.s.notifications)+1, 0)
	return int64(len(items)), nil
}

func (r memNotifications) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	for i, n := range r.s.notifications {
		if n.ID == id && n.AccountID == accountID {
			r.s.notifications[i].Read = true
			return nil
		}
	}
	return notification.ErrNotificationNotFound{NotificationID: id}
}

func (r memNotifications) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var n int64
	for i := range r.s.notifications {
		if r.s.notifications[i].AccountID == accountID && !r.s.notifications[i].Read {
			r.s.notifications[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r memNotifications) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	for i, n := range r.s.notifications {
		if n.ID == id && n.AccountID == accountID {
			r.s.notifications = append(r.s.notifications[:i], r.s.notifications[i+1:]...)
			return nil
		}
	}
	return notification.ErrNotificationNotFound{NotificationID: id}
}

// outbox

type memOutbox struct{ s *memStore }

func (r memOutbox) WithTx(pgx.Tx) outbox.Repository { return r }

func (r memOutbox) Create(ctx context.Context, msg *outbox.Message) error {
	msg.ID = int64(len(r.s.outbox) + 1)
	r.s.outbox = append(r.s.outbox, *msg)
	return nil
}

func (r memOutbox) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	out := []*outbox.Message{}
	for i := range r.s.outbox {
		if r.s.outbox[i].Status == shared.OutboxStatusPending && len(out) < limit {
			m := r.s.outbox[i]
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r memOutbox) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	if id < 1 || int(id) > len(r.s.outbox) {
		return outbox.ErrMessageNotFound{ID: id}
	}
	r.s.outbox[id-1].Status = status
	return nil
}

func (r memOutbox) IncrementAttempts(ctx context.Context, id int64) error {
	if id < 1 || int(id) > len(r.s.outbox) {
		return outbox.ErrMessageNotFound{ID: id}
	}
	r.s.outbox[id-1].Attempts++
	return nil
}

// catalog

type memCatalog struct{ s *memStore }

func (r memCatalog) WithTx(pgx.Tx) catalog.Repository { return r }

func (r memCatalog) ListDepositMethods(ctx context.Context, country string) ([]*catalog.DepositMethod, error) {
	out := []*catalog.DepositMethod{}
	for _, m := range r.s.depositMethods {
		if m.Active && catalog.VisibleIn(m.Country, country) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCatalog) GetDepositMethod(ctx context.Context, id uuid.UUID) (*catalog.DepositMethod, error) {
	m, ok := r.s.depositMethods[id]
	if !ok || !m.Active {
		return nil, catalog.ErrCatalogEntryNotFound{Kind: "deposit method", ID: id}
	}
	return &m, nil
}

func (r memCatalog) CreateDepositMethod(ctx context.Context, m *catalog.DepositMethod) error {
	r.s.depositMethods[m.ID] = *m
	return nil
}

func (r memCatalog) ListWithdrawalMethods(ctx context.Context, country string) ([]*catalog.WithdrawalMethod, error) {
	out := []*catalog.WithdrawalMethod{}
	for _, m := range r.s.withdrawalMethods {
		if m.Active && catalog.VisibleIn(m.Country, country) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCatalog) GetWithdrawalMethod(ctx context.Context, id uuid.UUID) (*catalog.WithdrawalMethod, error) {
	m, ok := r.s.withdrawalMethods[id]
	if !ok || !m.Active {
		return nil, catalog.ErrCatalogEntryNotFound{Kind: "withdrawal method", ID: id}
	}
	return &m, nil
}

func (r memCatalog) CreateWithdrawalMethod(ctx context.Context, m *catalog.WithdrawalMethod) error {
	r.s.withdrawalMethods[m.ID] = *m
	return nil
}

func (r memCatalog) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	out := []*catalog.Service{}
	for _, svc := range r.s.services {
		if svc.Active {
			svc := svc
			out = append(out, &svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCatalog) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	svc, ok := r.s.services[id]
	if !ok || !svc.Active {
		return nil, catalog.ErrCatalogEntryNotFound{Kind: "service", ID: id}
	}
	return &svc, nil
}

func (r memCatalog) CreateService(ctx context.Context, svc *catalog.Service) error {
	r.s.services[svc.ID] = *svc
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// harness wires the real engine components over a memStore.
type harness struct {
	store  *memStore
	ledger service.LedgerService
	review service.ReviewService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	repos := components.Repositories{
		Accounts:      memAccounts{store},
		Transactions:  memRecords{store},
		Requests:      memRequests{store},
		Notifications: memNotifications{store},
		Outbox:        memOutbox{store},
		Catalog:       memCatalog{store},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger, review := components.CreateLedgerServices(store, repos, nil, nil, logger)
	return &harness{store: store, ledger: ledger, review: review}
}

const testPin = "1234"

var (
	pinHashOnce sync.Once
	pinHash     string
)

func hashedTestPin(t *testing.T) string {
	t.Helper()
	pinHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(testPin), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		pinHash = string(h)
	})
	return pinHash
}

// addAccount seeds an account in country SA holding balance. withPin controls whether a
// PIN is configured.
func (h *harness) addAccount(t *testing.T, username string, balance int64, withPin bool) *account.Account {
	t.Helper()
	code, err := account.GenerateCustomCode()
	require.NoError(t, err)
	acc, err := account.NewAccount(uuid.New(), account.Registration{
		Username: username,
		Email:    username + "@example.com",
		Country:  "SA",
	}, code)
	require.NoError(t, err)
	acc.Balance = decimal.NewFromInt(balance)
	if withPin {
		hash := hashedTestPin(t)
		acc.PinHash = &hash
	}
	h.store.read(func() { h.store.accounts[acc.ID] = *acc })
	return acc
}

func (h *harness) addWithdrawalMethod(t *testing.T, country string, fee catalog.FeeType, feeValue, rate string) *catalog.WithdrawalMethod {
	t.Helper()
	m := &catalog.WithdrawalMethod{
		ID:             uuid.New(),
		Name:           "Bank Transfer",
		Country:        country,
		Currency:       "SAR",
		ExchangeRate:   decimal.RequireFromString(rate),
		FeeType:        fee,
		FeeValue:       decimal.RequireFromString(feeValue),
		RequiredFields: []string{"iban"},
		Active:         true,
	}
	h.store.read(func() { h.store.withdrawalMethods[m.ID] = *m })
	return m
}

func (h *harness) addDepositMethod(t *testing.T, country string) *catalog.DepositMethod {
	t.Helper()
	m := &catalog.DepositMethod{ID: uuid.New(), Name: "STC Pay", Country: country, Active: true}
	h.store.read(func() { h.store.depositMethods[m.ID] = *m })
	return m
}

func (h *harness) addService(t *testing.T, svc catalog.Service) *catalog.Service {
	t.Helper()
	svc.ID = uuid.New()
	svc.Active = true
	h.store.read(func() { h.store.services[svc.ID] = svc })
	return &svc
}

// totalBalance sums every account balance.
func (h *harness) totalBalance() decimal.Decimal {
	total := decimal.Zero
	h.store.read(func() {
		for _, acc := range h.store.accounts {
			total = total.Add(acc.Balance)
		}
	})
	return total
}
