package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/auth"
	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/repository"
)

const (
	referralAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeLength = 6
	minPasswordLength  = 6
	createAttempts     = 3
)

type AccountService struct {
	log       *slog.Logger
	accounts  AccountStore
	photos    PhotoStore
	recharges RechargeStore
	tokens    *auth.TokenIssuer
	now       func() time.Time
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	// Balance defaults to the welcome bonus when nil.
	Balance *decimal.Decimal
}

type Session struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

func NewAccountService(log *slog.Logger, accounts AccountStore, photos PhotoStore, recharges RechargeStore, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{
		log:       log,
		accounts:  accounts,
		photos:    photos,
		recharges: recharges,
		tokens:    tokens,
		now:       time.Now,
	}
}

// SignUp registers a USER account credited with the current welcome bonus.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput, settings models.SystemSettings) (*Session, error) {
	account, err := s.create(ctx, in.Name, in.Email, in.Password, models.RoleUser, settings.WelcomeBonus)
	if err != nil {
		return nil, err
	}
	s.log.Info("account registered", "account_id", account.ID, "bonus", settings.WelcomeBonus.String())
	return s.session(account)
}

func (s *AccountService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || !auth.CheckPassword(password, account.PasswordHash) {
		return nil, ErrAuthFailed
	}
	if account.IsSuspended {
		return nil, ErrAccountSuspended
	}
	return s.session(account)
}

// AdminSignIn additionally requires the ADMIN role and the PIN from settings.
func (s *AccountService) AdminSignIn(ctx context.Context, email, password, pin string, settings models.SystemSettings) (*Session, error) {
	sess, err := s.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !sess.Account.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if settings.AdminPIN == "" || subtle.ConstantTimeCompare([]byte(pin), []byte(settings.AdminPIN)) != 1 {
		s.log.Warn("admin pin mismatch", "account_id", sess.Account.ID)
		return nil, ErrAccessDenied
	}
	return sess, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, search string) ([]models.Account, error) {
	return s.accounts.List(ctx, search)
}

// CreateUser lets an administrator open an account on someone's behalf.
func (s *AccountService) CreateUser(ctx context.Context, in CreateUserInput, settings models.SystemSettings) (*models.Account, error) {
	balance := settings.WelcomeBonus
	if in.Balance != nil {
		if in.Balance.IsNegative() {
			return nil, invalidf("balance cannot be negative")
		}
		balance = *in.Balance
	}
	account, err := s.create(ctx, in.Name, in.Email, in.Password, models.RoleUser, balance)
	if err != nil {
		return nil, err
	}
	s.log.Info("account created by admin", "account_id", account.ID)
	return account, nil
}

// EnsureAdmin creates the bootstrap administrator when no account uses the email yet.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if !existing.IsAdmin() {
			s.log.Warn("bootstrap admin email belongs to a regular account", "account_id", existing.ID)
		}
		return nil
	}
	account, err := s.create(ctx, "Administrator", email, password, models.RoleAdmin, decimal.Zero)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("bootstrap admin created", "account_id", account.ID)
	return nil
}

// ToggleSuspend flips the suspension flag. Administrators cannot be suspended.
func (s *AccountService) ToggleSuspend(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if err := s.accounts.SetSuspended(ctx, id, !account.IsSuspended); err != nil {
		return nil, err
	}
	account.IsSuspended = !account.IsSuspended
	s.log.Info("account suspension changed", "account_id", id, "suspended", account.IsSuspended)
	return account, nil
}

// SendNotice stores a personal notice; an empty notice clears it.
func (s *AccountService) SendNotice(ctx context.Context, id, notice string) (*models.Account, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.accounts.SetNotice(ctx, id, strings.TrimSpace(notice)); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *AccountService) MarkNoticeRead(ctx context.Context, id string) error {
	return s.accounts.MarkNoticeRead(ctx, id)
}

func (s *AccountService) Stats(ctx context.Context) (models.Stats, error) {
	var (
		st  models.Stats
		err error
	)
	if st.Users, err = s.accounts.Count(ctx); err != nil {
		return models.Stats{}, err
	}
	if st.PendingRecharges, err = s.recharges.CountPending(ctx); err != nil {
		return models.Stats{}, err
	}
	if st.Photos, err = s.photos.Count(ctx); err != nil {
		return models.Stats{}, err
	}
	return st, nil
}

func (s *AccountService) create(ctx context.Context, name, email, password string, role models.Role, balance decimal.Decimal) (*models.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, invalidf("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidf("email %q is not valid", email)
	}
	if len(password) < minPasswordLength {
		return nil, invalidf("password must be at least %d characters", minPasswordLength)
	}

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Balance:      balance.Round(2),
		CreatedAt:    s.now().UTC(),
	}
	for attempt := 0; attempt < createAttempts; attempt++ {
		if account.ReferralCode, err = newReferralCode(); err != nil {
			return nil, err
		}
		err = s.accounts.Create(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		// Either the email was registered concurrently or the referral code collided.
		if existing, ferr := s.accounts.FindByEmail(ctx, email); ferr == nil && existing != nil {
			return nil, ErrEmailTaken
		}
	}
	return nil, fmt.Errorf("create account: referral code collisions: %w", err)
}

func (s *AccountService) session(account *models.Account) (*Session, error) {
	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Account: account}, nil
}

func newReferralCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(referralAlphabet)))
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return b.String(), nil
}
