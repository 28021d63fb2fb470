package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/service"
)

const (
	actionApprove  = "approve"
	actionReject   = "reject"
	rejectedReason = "Rejected by administrator via Telegram"
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RechargeResolver is satisfied by *service.RechargeService.
type RechargeResolver interface {
	Approve(ctx context.Context, id string) (*models.RechargeRequest, error)
	Reject(ctx context.Context, id, reason string) (*models.RechargeRequest, error)
}

// Bot posts recharge alerts to the admin chat and resolves them from inline buttons.
type Bot struct {
	api         botAPI
	adminChatID int64
	log         *slog.Logger
}

func New(token string, adminChatID int64, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Bot{api: api, adminChatID: adminChatID, log: log}, nil
}

func (b *Bot) NotifyRechargeSubmitted(_ context.Context, req *models.RechargeRequest) error {
	text := fmt.Sprintf("New recharge request\nAccount: %s (%s)\nAmount: %s via %s\nSender: %s\nTrx ID: %s",
		req.AccountName, req.AccountID, req.Amount.StringFixed(2), req.Method, req.SenderNumber, req.TrxID)

	msg := tgbotapi.NewMessage(b.adminChatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", actionApprove+":"+req.ID),
			tgbotapi.NewInlineKeyboardButtonData("Reject", actionReject+":"+req.ID),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send recharge alert: %w", err)
	}
	return nil
}

// Run handles button presses until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, recharges RechargeResolver) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram admin bot started", "chat_id", b.adminChatID)

	for {
		select {
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, recharges, update.CallbackQuery)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (b *Bot) handleCallback(ctx context.Context, recharges RechargeResolver, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.adminChatID {
		b.answer(cb.ID, "Not allowed")
		return
	}

	action, id, ok := strings.Cut(cb.Data, ":")
	if !ok || id == "" {
		b.answer(cb.ID, "Unknown action")
		return
	}

	var (
		req *models.RechargeRequest
		err error
	)
	switch action {
	case actionApprove:
		req, err = recharges.Approve(ctx, id)
	case actionReject:
		req, err = recharges.Reject(ctx, id, rejectedReason)
	default:
		b.answer(cb.ID, "Unknown action")
		return
	}

	switch {
	case errors.Is(err, service.ErrRechargeNotPending):
		b.answer(cb.ID, "Already resolved")
		return
	case errors.Is(err, service.ErrNotFound):
		b.answer(cb.ID, "Request not found")
		return
	case err != nil:
		b.log.Error("resolve recharge from telegram", "recharge_id", id, "action", action, "err", err)
		b.answer(cb.ID, "Failed, try the dashboard")
		return
	}

	b.answer(cb.ID, "Done")
	b.sendText(b.adminChatID, fmt.Sprintf("Recharge %s %s: %s for %s",
		req.TrxID, strings.ToLower(string(req.Status)), req.Amount.StringFixed(2), req.AccountName))
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("callback ack", "err", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send text", "err", err)
	}
}
