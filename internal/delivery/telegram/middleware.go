package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := fn(ctx, chatID); err != nil {
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.sendError(chatID, msgInternalError)
			return nil
		}
		return nil
	}
}

// checkSubscription gates the bot behind channel membership when a required
// channel is configured. Admins always pass.
func (h *Handler) checkSubscription(ctx context.Context, userID, chatID int64) bool {
	if h.opts.RequiredChannel == "" {
		return true
	}
	if h.isAdmin(userID) {
		return true
	}

	member, err := h.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: h.opts.RequiredChannel,
			UserID:             userID,
		},
	})
	if err != nil {
		h.logger.Warn("failed to check channel membership",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		// On transient API failures let the user through rather than
		// locking everyone out.
		return true
	}

	switch member.Status {
	case "member", "administrator", "creator":
		if err := h.userService.SetSubscribed(ctx, userID); err != nil {
			h.logger.Error("failed to mark user subscribed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		return true
	}

	msg := tgbotapi.NewMessage(chatID, msgSubscriptionPrompt)
	msg.ReplyMarkup = buildSubscriptionKeyboard(h.opts.RequiredChannel)
	_ = h.send(msg)
	return false
}

func (h *Handler) isAdmin(userID int64) bool {
	for _, id := range h.opts.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
