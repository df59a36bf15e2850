package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flash-wallet-ledger/internal/api_gateway/middleware"
	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/activity"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	ledger "github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, principalID uuid.UUID, reg account.Registration) (*account.Account, error) {
	args := m.Called(ctx, principalID, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetProfile(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) Resolve(ctx context.Context, query string) (*account.Account, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) SetPin(ctx context.Context, id uuid.UUID, currentPin, newPin string) error {
	args := m.Called(ctx, id, currentPin, newPin)
	return args.Error(0)
}

func (m *MockAccountService) ListTransactions(ctx context.Context, id uuid.UUID, limit, offset int) ([]*transaction.Record, int64, error) {
	args := m.Called(ctx, id, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*transaction.Record), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountService) ListActivity(ctx context.Context, id uuid.UUID, limit, offset int) ([]*activity.Entry, int64, error) {
	args := m.Called(ctx, id, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*activity.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountService) Purge(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Transfer(ctx context.Context, cmd ledger.TransferCommand) (*ledger.TransferResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransferResult), args.Error(1)
}

func (m *MockLedgerService) RequestWithdrawal(ctx context.Context, cmd ledger.WithdrawalCommand) (*request.Request, error) {
	return requestResult(m.Called(ctx, cmd))
}

func (m *MockLedgerService) SubmitDeposit(ctx context.Context, cmd ledger.DepositCommand) (*request.Request, error) {
	return requestResult(m.Called(ctx, cmd))
}

func (m *MockLedgerService) Purchase(ctx context.Context, cmd ledger.PurchaseCommand) (*request.Request, error) {
	return requestResult(m.Called(ctx, cmd))
}

func (m *MockLedgerService) SubmitKyc(ctx context.Context, cmd ledger.KycCommand) (*request.Request, error) {
	return requestResult(m.Called(ctx, cmd))
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ApproveWithdrawal(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return requestResult(m.Called(ctx, id))
}

func (m *MockReviewService) RejectWithdrawal(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	return requestResult(m.Called(ctx, id, reason))
}

func (m *MockReviewService) ApproveDeposit(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return requestResult(m.Called(ctx, id))
}

func (m *MockReviewService) RejectDeposit(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	return requestResult(m.Called(ctx, id, reason))
}

func (m *MockReviewService) ApproveOrder(ctx context.Context, id uuid.UUID, resultPayload string) (*request.Request, error) {
	return requestResult(m.Called(ctx, id, resultPayload))
}

func (m *MockReviewService) RejectOrder(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	return requestResult(m.Called(ctx, id, reason))
}

func (m *MockReviewService) ApproveKyc(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return requestResult(m.Called(ctx, id))
}

func (m *MockReviewService) RejectKyc(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	return requestResult(m.Called(ctx, id, reason))
}

func (m *MockReviewService) Review(ctx context.Context, d ledger.Decision) (*request.Request, error) {
	return requestResult(m.Called(ctx, d))
}

func (m *MockReviewService) ListPending(ctx context.Context, t request.Type, limit, offset int) ([]*request.Request, int64, error) {
	args := m.Called(ctx, t, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*request.Request), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewService) GetRequest(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return requestResult(m.Called(ctx, id))
}

func (m *MockReviewService) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.Request, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*request.Request), args.Error(1)
}

func requestResult(args mock.Arguments) (*request.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*request.Request), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, int64, error) {
	args := m.Called(ctx, accountID, unreadOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*notification.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	return m.Called(ctx, accountID, id).Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	return m.Called(ctx, accountID, id).Error(0)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) DepositMethods(ctx context.Context, accountID uuid.UUID) ([]*catalog.DepositMethod, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.DepositMethod), args.Error(1)
}

func (m *MockCatalogService) WithdrawalMethods(ctx context.Context, accountID uuid.UUID) ([]*catalog.WithdrawalMethod, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.WithdrawalMethod), args.Error(1)
}

func (m *MockCatalogService) Services(ctx context.Context) ([]*catalog.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Service), args.Error(1)
}

func (m *MockCatalogService) CreateDepositMethod(ctx context.Context, dm *catalog.DepositMethod) (*catalog.DepositMethod, error) {
	args := m.Called(ctx, dm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.DepositMethod), args.Error(1)
}

func (m *MockCatalogService) CreateWithdrawalMethod(ctx context.Context, wm *catalog.WithdrawalMethod) (*catalog.WithdrawalMethod, error) {
	args := m.Called(ctx, wm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.WithdrawalMethod), args.Error(1)
}

func (m *MockCatalogService) CreateService(ctx context.Context, s *catalog.Service) (*catalog.Service, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Service), args.Error(1)
}

type MockCallbackAnswerer struct {
	mock.Mock
}

func (m *MockCallbackAnswerer) AnswerCallback(ctx context.Context, callbackQueryID, text string) error {
	return m.Called(ctx, callbackQueryID, text).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestRouter returns a router that authenticates every request as principal.
// A nil principal leaves requests anonymous.
func setupTestRouter(principal *middleware.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if principal != nil {
		p := *principal
		r.Use(func(c *gin.Context) {
			c.Set(middleware.PrincipalKey, p)
			c.Next()
		})
	}
	return r
}

func doRequest(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// decodeResponse unmarshals the envelope and decodes its data field into out when set.
func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, out any) Response {
	t.Helper()
	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw), rr.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}
