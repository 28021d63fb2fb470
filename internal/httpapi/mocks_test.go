package httpapi

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/service"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) SignUp(ctx context.Context, in service.SignUpInput, settings models.SystemSettings) (*service.Session, error) {
	args := m.Called(ctx, in, settings)
	sess, _ := args.Get(0).(*service.Session)
	return sess, args.Error(1)
}

func (m *mockAccounts) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	sess, _ := args.Get(0).(*service.Session)
	return sess, args.Error(1)
}

func (m *mockAccounts) AdminSignIn(ctx context.Context, email, password, pin string, settings models.SystemSettings) (*service.Session, error) {
	args := m.Called(ctx, email, password, pin, settings)
	sess, _ := args.Get(0).(*service.Session)
	return sess, args.Error(1)
}

func (m *mockAccounts) Get(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) List(ctx context.Context, search string) ([]models.Account, error) {
	args := m.Called(ctx, search)
	list, _ := args.Get(0).([]models.Account)
	return list, args.Error(1)
}

func (m *mockAccounts) CreateUser(ctx context.Context, in service.CreateUserInput, settings models.SystemSettings) (*models.Account, error) {
	args := m.Called(ctx, in, settings)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) ToggleSuspend(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) SendNotice(ctx context.Context, id, notice string) (*models.Account, error) {
	args := m.Called(ctx, id, notice)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) MarkNoticeRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAccounts) Stats(ctx context.Context) (models.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Stats), args.Error(1)
}

type mockStudio struct{ mock.Mock }

func (m *mockStudio) NewSession() string {
	return m.Called().String(0)
}

func (m *mockStudio) Generate(ctx context.Context, account *models.Account, req service.GenerationRequest, settings models.SystemSettings) (*service.GenerationResult, error) {
	args := m.Called(ctx, account, req, settings)
	res, _ := args.Get(0).(*service.GenerationResult)
	return res, args.Error(1)
}

func (m *mockStudio) History(ctx context.Context, accountID string, day time.Time) ([]models.PhotoRecord, error) {
	args := m.Called(ctx, accountID, day)
	list, _ := args.Get(0).([]models.PhotoRecord)
	return list, args.Error(1)
}

func (m *mockStudio) Search(ctx context.Context, query string) ([]models.PhotoRecord, error) {
	args := m.Called(ctx, query)
	list, _ := args.Get(0).([]models.PhotoRecord)
	return list, args.Error(1)
}

type mockRecharges struct{ mock.Mock }

func (m *mockRecharges) Submit(ctx context.Context, account *models.Account, in service.RechargeInput, settings models.SystemSettings) (*models.RechargeRequest, error) {
	args := m.Called(ctx, account, in, settings)
	req, _ := args.Get(0).(*models.RechargeRequest)
	return req, args.Error(1)
}

func (m *mockRecharges) ListForAccount(ctx context.Context, accountID string) ([]models.RechargeRequest, error) {
	args := m.Called(ctx, accountID)
	list, _ := args.Get(0).([]models.RechargeRequest)
	return list, args.Error(1)
}

func (m *mockRecharges) List(ctx context.Context, status models.RechargeStatus) ([]models.RechargeRequest, error) {
	args := m.Called(ctx, status)
	list, _ := args.Get(0).([]models.RechargeRequest)
	return list, args.Error(1)
}

func (m *mockRecharges) Approve(ctx context.Context, id string) (*models.RechargeRequest, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*models.RechargeRequest)
	return req, args.Error(1)
}

func (m *mockRecharges) Reject(ctx context.Context, id, reason string) (*models.RechargeRequest, error) {
	args := m.Called(ctx, id, reason)
	req, _ := args.Get(0).(*models.RechargeRequest)
	return req, args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Adjust(ctx context.Context, accountID, amountText string, direction service.Direction) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, amountText, direction)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Get(ctx context.Context) (models.SystemSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.SystemSettings), args.Error(1)
}

func (m *mockSettings) Update(ctx context.Context, in service.SettingsInput) (models.SystemSettings, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.SystemSettings), args.Error(1)
}

func (m *mockSettings) ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) (models.SystemSettings, error) {
	args := m.Called(ctx, methods)
	return args.Get(0).(models.SystemSettings), args.Error(1)
}

func (m *mockSettings) UploadLogo(ctx context.Context, position int, data []byte, contentType string) (models.SystemSettings, error) {
	args := m.Called(ctx, position, data, contentType)
	return args.Get(0).(models.SystemSettings), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }
