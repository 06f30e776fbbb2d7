package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/service"
)

// buildMainMenuKeyboard builds the persistent main menu reply keyboard.
func buildMainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStartQuiz),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCommands),
			tgbotapi.NewKeyboardButton(btnHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = "Выберите действие"
	return kb
}

// buildLevelsKeyboard builds the level choice reply keyboard.
func buildLevelsKeyboard(levels []entities.Level) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(levels)+1)
	for _, lvl := range levels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(levelLabel(lvl)),
		))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnMainMenu),
	))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = "Выберите уровень подготовки"
	return kb
}

// buildTopicsKeyboard builds the topic choice reply keyboard.
func buildTopicsKeyboard(topics []service.TopicOption, allowBackToLevels bool) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(topics)+2)
	for _, topic := range topics {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(topic.Title),
		))
	}
	if allowBackToLevels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBackToLevels),
		))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnMainMenu),
	))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = "Выберите тему"
	return kb
}

// buildOptionsKeyboard builds the inline keyboard with a question's options.
func buildOptionsKeyboard(q *entities.Question) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for i, option := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				option,
				buildQuizAnswerCallback(q.ID, i),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func buildSubscriptionKeyboard(channel string) tgbotapi.InlineKeyboardMarkup {
	url := "https://t.me/" + strings.TrimPrefix(channel, "@")
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(btnOpenChannel, url),
		),
	)
}
