package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/service"
)

// applyEffects renders the flow's semantic effects as Telegram messages.
func (h *Handler) applyEffects(userID, chatID int64, effects []service.Effect) error {
	for _, effect := range effects {
		if err := h.applyEffect(userID, chatID, effect); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) applyEffect(userID, chatID int64, effect service.Effect) error {
	switch e := effect.(type) {
	case service.PresentLevels:
		msg := tgbotapi.NewMessage(chatID, formatChooseLevel())
		msg.ReplyMarkup = buildLevelsKeyboard(e.Levels)
		return h.send(msg)

	case service.PresentTopics:
		msg := tgbotapi.NewMessage(chatID, formatChooseTopic(e.Level))
		msg.ReplyMarkup = buildTopicsKeyboard(e.Topics, e.AllowBackToLevels)
		return h.send(msg)

	case service.SessionStarted:
		msg := tgbotapi.NewMessage(chatID, formatSessionStarted(e))
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		return h.send(msg)

	case service.PresentQuestion:
		return h.sendQuestion(userID, chatID, e)

	case service.PresentChoiceFeedback:
		return h.send(tgbotapi.NewMessage(chatID, formatChoiceFeedback(e)))

	case service.PresentOpenFeedback:
		return h.send(tgbotapi.NewMessage(chatID, formatOpenFeedback(e)))

	case service.PresentSummary:
		return h.send(tgbotapi.NewMessage(chatID, formatSummary(e)))

	case service.PresentNotice:
		return h.send(tgbotapi.NewMessage(chatID, noticeText(e.Notice)))

	case service.ClearPrompt:
		// Best effort: the message may already have been edited or deleted.
		edit := tgbotapi.NewEditMessageReplyMarkup(e.ChatID, e.MessageID, tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
		})
		if _, err := h.bot.Request(edit); err != nil {
			h.logger.Debug("clear prompt failed", zap.Error(err))
		}
		return nil

	case service.ShowMainMenu:
		msg := tgbotapi.NewMessage(chatID, msgCommands)
		msg.ReplyMarkup = buildMainMenuKeyboard()
		return h.send(msg)

	default:
		return fmt.Errorf("unknown effect %T", effect)
	}
}

// sendQuestion shows the current question. For mcq questions the options go
// on an inline keyboard and the sent message is registered as the live prompt
// so a later turn can disable it.
func (h *Handler) sendQuestion(userID, chatID int64, e service.PresentQuestion) error {
	msg := tgbotapi.NewMessage(chatID, formatQuestion(e))
	if e.Question.Type == entities.QuestionMCQ {
		msg.ReplyMarkup = buildOptionsKeyboard(e.Question)
	}

	sent, err := h.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send question: %w", err)
	}

	if e.Question.Type == entities.QuestionMCQ {
		h.machine.RecordPrompt(userID, chatID, sent.MessageID)
	}

	return nil
}
