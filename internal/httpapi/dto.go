package httpapi

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/models"
)

// flexText accepts a JSON string or a bare number and keeps its text form.
type flexText string

func (t *flexText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = flexText(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	*t = flexText(bytes.TrimSpace(b))
	return nil
}

type signUpRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type adminSignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	PIN      string `json:"pin" validate:"required"`
}

type generateRequest struct {
	SessionID    string   `json:"session_id" validate:"required,uuid"`
	Image        string   `json:"image" validate:"required"`
	Gender       string   `json:"gender" validate:"required,oneof=male female"`
	Size         string   `json:"size" validate:"required"`
	CustomWidth  flexText `json:"custom_width"`
	CustomHeight flexText `json:"custom_height"`
	Background   string   `json:"background" validate:"required"`
	Clothing     string   `json:"clothing" validate:"required"`
	FaceSmooth   bool     `json:"face_smooth"`
	LightFix     bool     `json:"light_fix"`
	Brightness   int      `json:"brightness" validate:"gte=0,lte=100"`
	Fairness     int      `json:"fairness" validate:"gte=0,lte=100"`
}

type rechargeRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method" validate:"required"`
	SenderNumber string          `json:"sender_number" validate:"required,max=32"`
	TrxID        string          `json:"trx_id" validate:"required,max=64"`
}

type createUserRequest struct {
	Name     string           `json:"name" validate:"required,max=120"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=6"`
	Balance  *decimal.Decimal `json:"balance"`
}

type adjustBalanceRequest struct {
	Amount    flexText `json:"amount"`
	Direction string   `json:"direction" validate:"required"`
}

type noticeRequest struct {
	Notice string `json:"notice"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type settingsRequest struct {
	Notice         string                 `json:"notice"`
	Helpline       string                 `json:"helpline"`
	GenerationCost decimal.Decimal        `json:"generation_cost"`
	WelcomeBonus   decimal.Decimal        `json:"welcome_bonus"`
	AdminPIN       string                 `json:"admin_pin" validate:"required"`
	PaymentMethods []models.PaymentMethod `json:"payment_methods"`
}

type paymentMethodsRequest struct {
	PaymentMethods []models.PaymentMethod `json:"payment_methods" validate:"required"`
}

type balanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type catalogResponse struct {
	Backgrounds []models.BackgroundColor   `json:"backgrounds"`
	Wardrobe    map[models.Gender][]string `json:"wardrobe"`
	Sizes       []string                   `json:"sizes"`
	CustomSize  string                     `json:"custom_size"`
}
