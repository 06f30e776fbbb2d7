package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/service"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Ack first so the client stops showing the progress clock even when
	// the tap turns out to be stale.
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		h.logger.Debug("failed to answer callback", zap.Error(err))
	}

	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}

	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	questionID, optionIndex, ok := parseQuizAnswerCallback(decodeCallback(cb.Data))
	if !ok {
		h.logger.Debug("unknown callback data",
			zap.Int64("user_id", userID),
			zap.String("data", cb.Data),
		)
		return
	}

	if !h.checkSubscription(ctx, userID, chatID) {
		return
	}

	_ = h.withErrorHandling(h.actionHandler(service.Action{
		UserID:      userID,
		Kind:        service.ActionChoice,
		QuestionID:  questionID,
		OptionIndex: optionIndex,
	}))(ctx, chatID)
}
