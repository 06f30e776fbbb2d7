package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/service"
)

const (
	msgAdminOnly        = "Эта команда доступна только администраторам."
	msgAddTopicUsage    = "Использование: /add_topic <уровень> | <название темы>\nУровни: basic, advanced."
	msgImportUsage      = "Использование: /import_topics <json>\nОжидается массив тем с вопросами."
	msgImportBadPayload = "Не удалось разобрать JSON с темами: %v"
)

func (h *Handler) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if !h.isAdmin(userID) {
		_ = h.send(tgbotapi.NewMessage(chatID, msgAdminOnly))
		return
	}

	switch msg.Command() {
	case "add_topic":
		_ = h.withErrorHandling(h.addTopicHandler(msg.CommandArguments()))(ctx, chatID)
	case "import_topics":
		_ = h.withErrorHandling(h.importTopicsHandler(msg.CommandArguments()))(ctx, chatID)
	case "stats":
		_ = h.withErrorHandling(h.statsHandler())(ctx, chatID)
	}
}

// statsHandler reports the content and usage counters.
func (h *Handler) statsHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		stats, err := h.stats.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("stats snapshot: %w", err)
		}
		return h.send(tgbotapi.NewMessage(chatID, formatBotStats(stats)))
	}
}

// addTopicHandler creates or reactivates a topic from "<level> | <title>".
func (h *Handler) addTopicHandler(args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		parts := strings.SplitN(args, "|", 2)
		if len(parts) != 2 {
			return h.send(tgbotapi.NewMessage(chatID, msgAddTopicUsage))
		}

		level := entities.Level(strings.ToLower(strings.TrimSpace(parts[0])))
		title := strings.TrimSpace(parts[1])
		if !level.Valid() || title == "" {
			return h.send(tgbotapi.NewMessage(chatID, msgAddTopicUsage))
		}

		id, err := h.admin.AddTopic(ctx, title, level)
		if err != nil {
			return fmt.Errorf("add topic: %w", err)
		}

		h.logger.Info("topic added",
			zap.Int64("topic_id", id),
			zap.String("title", title),
			zap.String("level", string(level)),
		)
		return h.send(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Тема «%s» (%s) сохранена, id=%d.", title, level, id)))
	}
}

// importTopicsHandler bulk-loads topics with questions from a JSON payload.
// The whole import is transactional: one bad question rejects everything.
func (h *Handler) importTopicsHandler(args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		payload := strings.TrimSpace(args)
		if payload == "" {
			return h.send(tgbotapi.NewMessage(chatID, msgImportUsage))
		}

		var topics []service.TopicImport
		if err := json.Unmarshal([]byte(payload), &topics); err != nil {
			return h.send(tgbotapi.NewMessage(chatID,
				fmt.Sprintf(msgImportBadPayload, err)))
		}

		stats, err := h.admin.ImportTopics(ctx, topics, false)
		if err != nil {
			h.logger.Warn("topic import rejected", zap.Error(err))
			return h.send(tgbotapi.NewMessage(chatID,
				fmt.Sprintf("Импорт отклонён: %v", err)))
		}

		h.logger.Info("topics imported",
			zap.Int("topics", stats.Topics),
			zap.Int("questions", stats.Questions),
		)
		return h.send(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Импорт завершён: тем %d, вопросов %d.", stats.Topics, stats.Questions)))
	}
}
