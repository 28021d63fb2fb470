package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type Account struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	PasswordHash    string          `json:"-"`
	Role            Role            `json:"role"`
	Balance         decimal.Decimal `json:"balance"`
	ReferralCode    string          `json:"referral_code"`
	IsSuspended     bool            `json:"is_suspended"`
	PersonalNotice  string          `json:"personal_notice,omitempty"`
	HasUnreadNotice bool            `json:"has_unread_notice"`
	PhotoCount      int             `json:"photo_count"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// PhotoRecord is immutable once written.
type PhotoRecord struct {
	ID            string       `json:"id"`
	AccountID     string       `json:"account_id"`
	AccountName   string       `json:"account_name"`
	OriginalImage string       `json:"original_image"`
	ResultImage   string       `json:"result_image"`
	Options       PhotoOptions `json:"options"`
	CreatedAt     time.Time    `json:"created_at"`
}

type RechargeStatus string

const (
	RechargePending  RechargeStatus = "PENDING"
	RechargeApproved RechargeStatus = "APPROVED"
	RechargeRejected RechargeStatus = "REJECTED"
)

func (s RechargeStatus) Valid() bool {
	switch s {
	case RechargePending, RechargeApproved, RechargeRejected:
		return true
	}
	return false
}

type RechargeRequest struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	AccountName     string          `json:"account_name"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	SenderNumber    string          `json:"sender_number"`
	TrxID           string          `json:"trx_id"`
	Status          RechargeStatus  `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type PaymentMethod struct {
	Name    string `json:"name"`
	Number  string `json:"number"`
	LogoURL string `json:"logo,omitempty"`
}

type SystemSettings struct {
	Notice         string          `json:"notice"`
	Helpline       string          `json:"helpline"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	GenerationCost decimal.Decimal `json:"generation_cost"`
	WelcomeBonus   decimal.Decimal `json:"welcome_bonus"`
	AdminPIN       string          `json:"admin_pin,omitempty"`
}

// Public strips fields that only administrators may read.
func (s SystemSettings) Public() SystemSettings {
	s.AdminPIN = ""
	s.PaymentMethods = append([]PaymentMethod(nil), s.PaymentMethods...)
	return s
}

func (s SystemSettings) HasPaymentMethod(name string) bool {
	for _, m := range s.PaymentMethods {
		if m.Name == name {
			return true
		}
	}
	return false
}

type Stats struct {
	Users            int `json:"users"`
	PendingRecharges int `json:"pending_recharges"`
	Photos           int `json:"photos"`
}
