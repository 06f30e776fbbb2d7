package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/service"
)

// QuizMachine drives the per-user quiz flow.
type QuizMachine interface {
	Handle(ctx context.Context, action service.Action) ([]service.Effect, error)
	RecordPrompt(userID, chatID int64, messageID int)
	AwaitingLevelChoice(userID int64) bool
}

// UserService tracks known users and their subscription state.
type UserService interface {
	EnsureUser(ctx context.Context, userID int64) error
	SetSubscribed(ctx context.Context, userID int64) error
}

// ContentAdmin applies administrative content changes.
type ContentAdmin interface {
	AddTopic(ctx context.Context, title string, level entities.Level) (int64, error)
	ImportTopics(ctx context.Context, topics []service.TopicImport, replaceDefault bool) (service.ImportStats, error)
}

// StatsProvider supplies the usage snapshot behind the admin stats command.
type StatsProvider interface {
	Snapshot(ctx context.Context) (repository.BotStats, error)
}

// Options carries access-control settings for the handler.
type Options struct {
	RequiredChannel string
	Admins          []int64
}

type Handler struct {
	bot         *tgbotapi.BotAPI
	logger      *zap.Logger
	machine     QuizMachine
	userService UserService
	admin       ContentAdmin
	stats       StatsProvider
	opts        Options
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	machine QuizMachine,
	userService UserService,
	admin ContentAdmin,
	stats StatsProvider,
	opts Options,
) *Handler {
	return &Handler{
		bot:         bot,
		logger:      logger,
		machine:     machine,
		userService: userService,
		admin:       admin,
		stats:       stats,
		opts:        opts,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			// One task per inbound action; per-user ordering is enforced by
			// the machine's slot locks, not by this loop.
			go h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	msg := update.Message
	if msg.From == nil || msg.Chat == nil {
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("text", msg.Text),
	)

	userID := msg.From.ID
	chatID := msg.Chat.ID

	if err := h.userService.EnsureUser(ctx, userID); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	if !h.checkSubscription(ctx, userID, chatID) {
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}

	_ = h.withErrorHandling(h.textHandler(userID, msg.Text))(ctx, chatID)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		h.sendWelcome(chatID)

	case "help":
		_ = h.send(tgbotapi.NewMessage(chatID, msgHelp))

	case "quiz":
		_ = h.withErrorHandling(h.actionHandler(service.Action{
			UserID: userID,
			Kind:   service.ActionStart,
		}))(ctx, chatID)

	case "add_topic", "import_topics", "stats":
		h.handleAdminCommand(ctx, msg)

	default:
		_ = h.send(tgbotapi.NewMessage(chatID, msgCommands))
	}
}

// textHandler maps free text onto a flow action. The informational buttons are
// answered directly; everything else goes through textAction.
func (h *Handler) textHandler(userID int64, text string) HandlerFunc {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(btnCommands):
		return func(_ context.Context, chatID int64) error {
			return h.send(tgbotapi.NewMessage(chatID, msgCommands))
		}
	case strings.ToLower(btnHelp):
		return func(_ context.Context, chatID int64) error {
			return h.send(tgbotapi.NewMessage(chatID, msgHelp))
		}
	}

	return h.actionHandler(textAction(userID, text, h.machine.AwaitingLevelChoice(userID)))
}

// textAction resolves static menu buttons first, then level labels, but the
// latter only while the flow is waiting for a level: in the answering stage a
// message spelling a level label is an answer, not a navigation tap.
func textAction(userID int64, text string, awaitingLevel bool) service.Action {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(btnStartQuiz):
		return service.Action{UserID: userID, Kind: service.ActionStart}
	case strings.ToLower(btnMainMenu):
		return service.Action{UserID: userID, Kind: service.ActionMainMenu}
	case strings.ToLower(btnBackToLevels):
		return service.Action{UserID: userID, Kind: service.ActionBackToLevels}
	}

	if awaitingLevel {
		if level, ok := levelByLabel(text); ok {
			return service.Action{UserID: userID, Kind: service.ActionSelectLevel, Level: level}
		}
	}

	return service.Action{UserID: userID, Kind: service.ActionText, Text: text}
}

// actionHandler feeds one action to the machine and renders its effects.
func (h *Handler) actionHandler(action service.Action) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		effects, err := h.machine.Handle(ctx, action)
		if err != nil {
			return err
		}
		return h.applyEffects(action.UserID, chatID, effects)
	}
}

func (h *Handler) sendWelcome(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, msgWelcome+"\n\n"+msgCommands)
	msg.ReplyMarkup = buildMainMenuKeyboard()
	_ = h.send(msg)
}

func (h *Handler) sendError(chatID int64, text string) {
	_ = h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
