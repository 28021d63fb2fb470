package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/PhotoStudio/internal/models"
)

func rechargeSettings() models.SystemSettings {
	return models.SystemSettings{PaymentMethods: []models.PaymentMethod{{Name: "bKash", Number: "017"}, {Name: "Nagad", Number: "018"}}}
}

func bkash500() RechargeInput {
	return RechargeInput{Amount: decimal.NewFromInt(500), Method: "bKash", SenderNumber: "01700000000", TrxID: "ABC123"}
}

func TestRechargeLifecycleApprove(t *testing.T) {
	ledger := newMemLedger()
	ledger.set("acc-1", 0)
	notifier := &recordingNotifier{}
	svc := NewRechargeService(discardLogger(), newMemRecharges(ledger), notifier)
	account := &models.Account{ID: "acc-1", Name: "Rahim"}

	req, err := svc.Submit(context.Background(), account, bkash500(), rechargeSettings())
	require.NoError(t, err)
	assert.Equal(t, models.RechargePending, req.Status)
	assert.Equal(t, []string{req.ID}, notifier.sent)
	assert.True(t, ledger.get("acc-1").IsZero())

	approved, err := svc.Approve(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RechargeApproved, approved.Status)
	assert.True(t, ledger.get("acc-1").Equal(decimal.NewFromInt(500)))

	_, err = svc.Submit(context.Background(), account, bkash500(), rechargeSettings())
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestRechargeTransitionsAreOneWay(t *testing.T) {
	ledger := newMemLedger()
	ledger.set("acc-1", 0)
	svc := NewRechargeService(discardLogger(), newMemRecharges(ledger), nil)
	account := &models.Account{ID: "acc-1", Name: "Rahim"}

	approvedReq, err := svc.Submit(context.Background(), account, bkash500(), rechargeSettings())
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), approvedReq.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), approvedReq.ID)
	assert.ErrorIs(t, err, ErrRechargeNotPending)
	_, err = svc.Reject(context.Background(), approvedReq.ID, "late")
	assert.ErrorIs(t, err, ErrRechargeNotPending)
	assert.True(t, ledger.get("acc-1").Equal(decimal.NewFromInt(500)))

	in := bkash500()
	in.TrxID = "XYZ789"
	rejectedReq, err := svc.Submit(context.Background(), account, in, rechargeSettings())
	require.NoError(t, err)
	rejected, err := svc.Reject(context.Background(), rejectedReq.ID, "trx not found")
	require.NoError(t, err)
	assert.Equal(t, "trx not found", rejected.RejectionReason)

	_, err = svc.Approve(context.Background(), rejectedReq.ID)
	assert.ErrorIs(t, err, ErrRechargeNotPending)
	assert.True(t, ledger.get("acc-1").Equal(decimal.NewFromInt(500)))
}

func TestRechargeSameTrxDifferentMethodIsAllowed(t *testing.T) {
	svc := NewRechargeService(discardLogger(), newMemRecharges(newMemLedger()), nil)
	account := &models.Account{ID: "acc-1"}

	_, err := svc.Submit(context.Background(), account, bkash500(), rechargeSettings())
	require.NoError(t, err)

	in := bkash500()
	in.Method = "Nagad"
	_, err = svc.Submit(context.Background(), account, in, rechargeSettings())
	assert.NoError(t, err)
}

func TestRechargeSubmitValidation(t *testing.T) {
	svc := NewRechargeService(discardLogger(), newMemRecharges(newMemLedger()), nil)
	account := &models.Account{ID: "acc-1"}

	cases := map[string]func(*RechargeInput){
		"zero amount":    func(in *RechargeInput) { in.Amount = decimal.Zero },
		"sub-cent":       func(in *RechargeInput) { in.Amount = decimal.RequireFromString("0.004") },
		"missing sender": func(in *RechargeInput) { in.SenderNumber = " " },
		"missing trx":    func(in *RechargeInput) { in.TrxID = "" },
		"unknown method": func(in *RechargeInput) { in.Method = "PayPal" },
	}
	for name, mutate := range cases {
		in := bkash500()
		mutate(&in)
		_, err := svc.Submit(context.Background(), account, in, rechargeSettings())
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestRechargeNotifierFailureDoesNotFailSubmit(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	svc := NewRechargeService(discardLogger(), newMemRecharges(newMemLedger()), notifier)

	_, err := svc.Submit(context.Background(), &models.Account{ID: "acc-1"}, bkash500(), rechargeSettings())
	assert.NoError(t, err)
	assert.Len(t, notifier.sent, 1)
}

func TestRechargeRejectRequiresReason(t *testing.T) {
	svc := NewRechargeService(discardLogger(), newMemRecharges(newMemLedger()), nil)
	_, err := svc.Reject(context.Background(), "r-1", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRechargeApproveUnknown(t *testing.T) {
	svc := NewRechargeService(discardLogger(), newMemRecharges(newMemLedger()), nil)
	_, err := svc.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRechargeSubmitRoundsToCents(t *testing.T) {
	svc := NewRechargeService(discardLogger(), newMemRecharges(newMemLedger()), nil)
	in := bkash500()
	in.Amount = decimal.RequireFromString("99.996")

	req, err := svc.Submit(context.Background(), &models.Account{ID: "acc-1"}, in, rechargeSettings())
	require.NoError(t, err)
	assert.Equal(t, "100", req.Amount.String())
}
