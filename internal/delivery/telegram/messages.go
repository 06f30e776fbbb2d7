// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/service"
)

// Menu button labels. The flow recognizes them verbatim.
const (
	btnStartQuiz    = "🚀 Запустить квиз"
	btnMainMenu     = "⬅️ Главное меню"
	btnBackToLevels = "↩️ Выбрать уровень"
	btnCommands     = "📋 Список команд"
	btnHelp         = "ℹ️ Помощь"
	btnOpenChannel  = "📣 Открыть канал"
)

const (
	msgWelcome = "Привет! Я бот для подготовки к собеседованиям. " +
		"Помогу потренироваться на реальных вопросах."
	msgHelp = "Как пользоваться ботом:\n" +
		"- Нажмите «🚀 Запустить квиз», чтобы выбрать тему.\n" +
		"- Отвечайте на вопросы, вводя номер варианта или текст ответа.\n" +
		"- В любой момент жмите «⬅️ Главное меню», чтобы вернуться."
	msgCommands = "Доступные команды:\n" +
		"/start - обновить приветствие и меню\n" +
		"/quiz - начать тренировочный квиз\n" +
		"/help - описание возможностей бота\n" +
		"Можно также пользоваться кнопками ниже 👇"
	msgSubscriptionPrompt = "Чтобы пользоваться ботом, подпишитесь на канал и затем снова отправьте /start."
	msgInternalError      = "Что-то пошло не так. Попробуйте позже."
)

// Notice texts keyed by the flow's notice kinds.
var noticeTexts = map[service.NoticeKind]string{
	service.NoticeNoLevels:            "Для квиза пока нет активных тем. Добавьте их через панель администратора.",
	service.NoticeNoTopicsForLevel:    "Для этого уровня пока нет готовых тем. Попробуйте выбрать другой уровень.",
	service.NoticeNoQuestionsForTopic: "Для выбранной темы пока нет вопросов. Попробуйте другую тему.",
	service.NoticeUseLevelButtons:     "Пожалуйста, воспользуйтесь кнопками, чтобы выбрать уровень.",
	service.NoticeUseTopicButtons:     "Используйте кнопки, чтобы выбрать тему.",
	service.NoticeTypeOptionNumber:    "Выберите вариант с помощью кнопок или введите номер варианта.",
	service.NoticeInvalidOption:       "Такого варианта нет. Выберите вариант из списка.",
	service.NoticeTurnClosed:          "Этот вопрос уже закрыт.",
	service.NoticeSessionInactive:     "Сессия не активна. Отправьте /quiz, чтобы начать новую.",
	service.NoticeMainMenu:            "Вы в главном меню.",
}

func noticeText(kind service.NoticeKind) string {
	if text, ok := noticeTexts[kind]; ok {
		return text
	}
	return msgInternalError
}

// levelLabel renders a level as a button label.
func levelLabel(level entities.Level) string {
	switch level {
	case entities.LevelBasic:
		return "🟢 Basic"
	case entities.LevelAdvanced:
		return "🔵 Advanced"
	default:
		return string(level)
	}
}

// levelByLabel maps a tapped button label back to its level value.
func levelByLabel(text string) (entities.Level, bool) {
	folded := strings.ToLower(strings.TrimSpace(text))
	for _, lvl := range []entities.Level{entities.LevelBasic, entities.LevelAdvanced} {
		if strings.ToLower(levelLabel(lvl)) == folded {
			return lvl, true
		}
	}
	return "", false
}

func formatChooseLevel() string {
	return "Выберите уровень подготовки:"
}

func formatChooseTopic(level entities.Level) string {
	return fmt.Sprintf("Отлично! Уровень %s. Выберите тему для тренировки:", levelLabel(level))
}

func formatSessionStarted(e service.SessionStarted) string {
	return fmt.Sprintf(
		"Стартуем! Тема «%s» (%s). В этой сессии %d вопросов."+
			" Сессии формируются автоматически и включают от %d до %d вопросов, если тема позволяет."+
			" Отвечайте развёрнуто или выбирайте вариант на кнопках. Бот оценит ответы и подскажет, что улучшить.",
		e.TopicTitle,
		levelLabel(e.Level),
		e.Total,
		service.MinSessionQuestions,
		service.MaxSessionQuestions,
	)
}

func formatQuestion(e service.PresentQuestion) string {
	q := e.Question

	header := fmt.Sprintf("[%d/%d] ", e.Position, e.Total)
	if q.Difficulty != "" {
		header += levelLabel(q.Difficulty) + " · "
	}
	header += q.Text

	if q.Type == entities.QuestionMCQ {
		return header + "\nВыберите вариант на кнопках ниже."
	}
	return header + "\nНапишите развёрнутый ответ 3–5 предложениями."
}

func formatChoiceFeedback(e service.PresentChoiceFeedback) string {
	if e.Correct {
		return "Верно! Отличная работа."
	}
	if e.CorrectOption != "" {
		return fmt.Sprintf("Неверно. Правильный ответ: %s", e.CorrectOption)
	}
	return "Неверно. Правильный ответ пока недоступен."
}

func formatOpenFeedback(e service.PresentOpenFeedback) string {
	if !e.Graded {
		return "Не получилось получить оценку. Ответ сохранён, продолжаем."
	}
	comment := e.Comment
	if comment == "" {
		comment = "Без комментария."
	}
	return fmt.Sprintf("Оценка: %d/5\nКомментарий: %s", e.Score, comment)
}

func formatSummary(e service.PresentSummary) string {
	header := fmt.Sprintf("Тренировка завершена.\nТема: «%s» (%s)", e.TopicTitle, levelLabel(e.Level))

	var recommendation string
	if len(e.WeakTopics) == 0 {
		recommendation = "Отличный результат! Продолжайте в том же духе."
	} else {
		parts := make([]string, 0, len(e.WeakTopics))
		for _, stat := range e.WeakTopics {
			parts = append(parts, fmt.Sprintf("%s (%s, %d)", stat.Title, levelLabel(stat.Level), stat.MissCount))
		}
		recommendation = fmt.Sprintf("Рекомендация: повторите темы %s.", strings.Join(parts, ", "))
	}

	return fmt.Sprintf("%s\nПравильных ответов: %d из %d.\n%s", header, e.Correct, e.Total, recommendation)
}

func formatBotStats(s repository.BotStats) string {
	lines := []string{
		"Статистика бота:",
		fmt.Sprintf("• Пользователи: %d (подписаны: %d)", s.Users, s.UsersSubscribed),
		fmt.Sprintf("• Темы: %d (активные: %d)", s.Topics, s.TopicsActive),
		fmt.Sprintf("• Вопросы: %d", s.Questions),
		fmt.Sprintf("• Сессии: %d (завершены: %d)", s.Sessions, s.SessionsFinished),
		fmt.Sprintf("• Ответы: %d (зачтено: %d, точность: %.1f%%)", s.Answers, s.AnswersAccepted, s.Accuracy()),
	}

	if s.LastSession != nil {
		lines = append(lines, fmt.Sprintf("• Последняя сессия: %s", s.LastSession.Format("2006-01-02 15:04")))
	}
	if s.LastAnswer != nil {
		lines = append(lines, fmt.Sprintf("• Последний ответ: %s", s.LastAnswer.Format("2006-01-02 15:04")))
	}

	if len(s.TopTopics) > 0 {
		lines = append(lines, "", "Топ тем по количеству вопросов:")
		for i, tc := range s.TopTopics {
			lines = append(lines, fmt.Sprintf("%d. %s: %d", i+1, tc.Title, tc.Questions))
		}
	}

	return strings.Join(lines, "\n")
}
