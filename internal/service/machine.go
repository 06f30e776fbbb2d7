package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
)

// Machine drives per-user quiz sessions: level choice, topic choice, the
// answering loop, and the end-of-session summary. Each inbound action holds
// the user's slot lock for the whole turn, so two concurrent actions for the
// same user can never double-score the current question. Actions for
// different users run fully concurrently.
type Machine struct {
	content  ContentRepository
	sessions SessionRepository
	selector *Selector
	scorer   *Scorer
	logger   *zap.Logger

	mu    sync.Mutex
	slots map[int64]*userSlot
}

type userSlot struct {
	mu    sync.Mutex
	state *FlowState // nil when the user has no active flow
}

// NewMachine creates a new Machine.
func NewMachine(
	content ContentRepository,
	sessions SessionRepository,
	selector *Selector,
	scorer *Scorer,
	logger *zap.Logger,
) *Machine {
	return &Machine{
		content:  content,
		sessions: sessions,
		selector: selector,
		scorer:   scorer,
		logger:   logger,
		slots:    make(map[int64]*userSlot),
	}
}

func (m *Machine) slot(userID int64) *userSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[userID]
	if !ok {
		s = &userSlot{}
		m.slots[userID] = s
	}
	return s
}

// Handle processes one inbound action and returns the render effects.
// An error means the turn could not complete (persistence failure); the
// in-memory cursor is not advanced in that case.
func (m *Machine) Handle(ctx context.Context, action Action) ([]Effect, error) {
	slot := m.slot(action.UserID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	switch action.Kind {
	case ActionStart:
		return m.startQuiz(ctx, slot)
	case ActionMainMenu:
		return m.mainMenu(slot), nil
	case ActionBackToLevels:
		return m.backToLevels(ctx, slot)
	case ActionSelectLevel:
		return m.selectLevel(ctx, slot, action.Level)
	case ActionText:
		return m.handleText(ctx, slot, action)
	case ActionChoice:
		return m.handleChoice(ctx, slot, action)
	default:
		return nil, nil
	}
}

// RecordPrompt registers the message carrying the live inline keyboard for
// the user's current question, so a later turn can disable it.
func (m *Machine) RecordPrompt(userID, chatID int64, messageID int) {
	slot := m.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.state == nil {
		return
	}
	slot.state.PromptChatID = chatID
	slot.state.PromptMessageID = messageID
}

// HasActiveFlow reports whether the user currently has flow state.
func (m *Machine) HasActiveFlow(userID int64) bool {
	slot := m.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.state != nil
}

// AwaitingLevelChoice reports whether the user's flow is at the level choice.
// Delivery uses it to resolve level button labels only at that stage, so an
// open answer that happens to spell a level label is still treated as an answer.
func (m *Machine) AwaitingLevelChoice(userID int64) bool {
	slot := m.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.state != nil && slot.state.Stage == StageChooseLevel
}

// startQuiz discards any existing flow unconditionally (at most one active
// quiz per user) and offers the level choice, or reports that no content is
// available yet.
func (m *Machine) startQuiz(ctx context.Context, slot *userSlot) ([]Effect, error) {
	effects := discardPrompt(slot.state)
	slot.state = nil

	levels, err := m.eligibleLevels(ctx)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return append(effects, PresentNotice{Notice: NoticeNoLevels}, ShowMainMenu{}), nil
	}

	slot.state = &FlowState{
		Stage:  StageChooseLevel,
		Levels: levels,
	}

	return append(effects, PresentLevels{Levels: levels}), nil
}

// eligibleLevels returns levels that have at least one active topic with
// questions, in presentation order.
func (m *Machine) eligibleLevels(ctx context.Context) ([]entities.Level, error) {
	levels, err := m.content.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, nil
	}

	topics, err := m.content.ListTopics(ctx, "")
	if err != nil {
		return nil, err
	}
	eligible := make(map[entities.Level]bool)
	for _, t := range topics {
		if t.QuestionCount > 0 {
			eligible[t.Level] = true
		}
	}

	out := make([]entities.Level, 0, len(levels))
	for _, lvl := range levels {
		if eligible[lvl] {
			out = append(out, lvl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SortRank() < out[j].SortRank()
	})
	return out, nil
}

func (m *Machine) mainMenu(slot *userSlot) []Effect {
	effects := discardPrompt(slot.state)
	slot.state = nil
	return append(effects, PresentNotice{Notice: NoticeMainMenu}, ShowMainMenu{})
}

func (m *Machine) backToLevels(ctx context.Context, slot *userSlot) ([]Effect, error) {
	// Rewinding discards session references but no persisted data.
	return m.startQuiz(ctx, slot)
}

func (m *Machine) selectLevel(ctx context.Context, slot *userSlot, level entities.Level) ([]Effect, error) {
	fs := slot.state
	if fs == nil || fs.Stage != StageChooseLevel {
		return []Effect{PresentNotice{Notice: NoticeSessionInactive}}, nil
	}

	known := false
	for _, lvl := range fs.Levels {
		if lvl == level {
			known = true
			break
		}
	}
	if !known {
		return []Effect{
			PresentNotice{Notice: NoticeUseLevelButtons},
			PresentLevels{Levels: fs.Levels},
		}, nil
	}

	topics, err := m.content.ListTopics(ctx, level)
	if err != nil {
		return nil, err
	}

	options := make([]TopicOption, 0, len(topics))
	byTitle := make(map[string]TopicOption, len(topics))
	for _, t := range topics {
		if t.QuestionCount == 0 {
			continue
		}
		opt := TopicOption{
			ID:            t.ID,
			Title:         t.Title,
			Level:         t.Level,
			QuestionCount: t.QuestionCount,
		}
		options = append(options, opt)
		byTitle[foldKey(t.Title)] = opt
	}
	if len(options) == 0 {
		return []Effect{
			PresentNotice{Notice: NoticeNoTopicsForLevel},
			PresentLevels{Levels: fs.Levels},
		}, nil
	}

	fs.Stage = StageChooseTopic
	fs.Level = level
	fs.Topics = byTitle
	fs.TopicList = options

	return []Effect{PresentTopics{
		Level:             level,
		Topics:            options,
		AllowBackToLevels: true,
	}}, nil
}

func (m *Machine) handleText(ctx context.Context, slot *userSlot, action Action) ([]Effect, error) {
	fs := slot.state
	if fs == nil {
		return nil, nil
	}

	text := strings.TrimSpace(action.Text)
	if text == "" {
		return nil, nil
	}

	switch fs.Stage {
	case StageChooseLevel:
		return []Effect{
			PresentNotice{Notice: NoticeUseLevelButtons},
			PresentLevels{Levels: fs.Levels},
		}, nil

	case StageChooseTopic:
		topic, ok := fs.Topics[foldKey(text)]
		if !ok {
			return []Effect{
				PresentNotice{Notice: NoticeUseTopicButtons},
				PresentTopics{Level: fs.Level, Topics: fs.TopicList, AllowBackToLevels: true},
			}, nil
		}
		return m.startSession(ctx, slot, action.UserID, topic)

	case StageAnswering:
		return m.answerWithText(ctx, slot, text)

	default:
		return nil, nil
	}
}

// startSession creates the session row, materializes the question batch and
// presents the first question.
func (m *Machine) startSession(ctx context.Context, slot *userSlot, userID int64, topic TopicOption) ([]Effect, error) {
	fs := slot.state

	questions, err := m.selector.Select(ctx, topic.ID)
	if err != nil {
		if errors.Is(err, ErrNoQuestionsAvailable) {
			return []Effect{
				PresentNotice{Notice: NoticeNoQuestionsForTopic},
				PresentTopics{Level: fs.Level, Topics: fs.TopicList, AllowBackToLevels: true},
			}, nil
		}
		return nil, err
	}

	session := entities.NewSession(userID, topic.ID, len(questions), sessionMode(questions))
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	fs.Stage = StageAnswering
	fs.TopicID = topic.ID
	fs.TopicTitle = topic.Title
	fs.Session = session
	fs.Questions = questions
	fs.PromptChatID = 0
	fs.PromptMessageID = 0

	m.logger.Info("session started",
		zap.Int64("user_id", userID),
		zap.Int64("session_id", session.ID),
		zap.Int64("topic_id", topic.ID),
		zap.Int("total_questions", session.TotalQuestions),
	)

	return []Effect{
		SessionStarted{TopicTitle: topic.Title, Level: fs.Level, Total: len(questions)},
		PresentQuestion{Question: questions[0], Position: 1, Total: len(questions)},
	}, nil
}

// sessionMode derives the session mode from the batch content.
func sessionMode(questions []*entities.Question) entities.SessionMode {
	var hasMCQ, hasOpen bool
	for _, q := range questions {
		switch q.Type {
		case entities.QuestionMCQ:
			hasMCQ = true
		case entities.QuestionOpen:
			hasOpen = true
		}
	}
	switch {
	case hasMCQ && hasOpen:
		return entities.ModeMixed
	case hasOpen:
		return entities.ModeOpen
	default:
		return entities.ModeTest
	}
}

// answerWithText handles free text in the answering stage: a typed option
// number for mcq questions, or the answer body for open questions.
func (m *Machine) answerWithText(ctx context.Context, slot *userSlot, text string) ([]Effect, error) {
	fs := slot.state
	q := fs.CurrentQuestion()
	if q == nil {
		return []Effect{PresentNotice{Notice: NoticeTurnClosed}}, nil
	}

	switch q.Type {
	case entities.QuestionMCQ:
		n, err := strconv.Atoi(text)
		if err != nil {
			return []Effect{PresentNotice{Notice: NoticeTypeOptionNumber}}, nil
		}
		return m.acceptChoiceTurn(ctx, slot, q, n-1)

	case entities.QuestionOpen:
		return m.acceptOpenTurn(ctx, slot, q, text)

	default:
		return []Effect{PresentNotice{Notice: NoticeTurnClosed}}, nil
	}
}

// handleChoice handles an inline option tap. Stale taps referencing a
// question other than the current one are rejected without any state change
// or answer write.
func (m *Machine) handleChoice(ctx context.Context, slot *userSlot, action Action) ([]Effect, error) {
	fs := slot.state
	if fs == nil || fs.Stage != StageAnswering {
		return []Effect{PresentNotice{Notice: NoticeSessionInactive}}, nil
	}

	q := fs.CurrentQuestion()
	if q == nil || q.ID != action.QuestionID || q.Type != entities.QuestionMCQ {
		return []Effect{PresentNotice{Notice: NoticeTurnClosed}}, nil
	}

	return m.acceptChoiceTurn(ctx, slot, q, action.OptionIndex)
}

// acceptChoiceTurn runs one mcq turn: validate the index, score, persist the
// answer and the progress update, then advance.
func (m *Machine) acceptChoiceTurn(ctx context.Context, slot *userSlot, q *entities.Question, chosenIndex int) ([]Effect, error) {
	fs := slot.state

	if chosenIndex < 0 || chosenIndex >= len(q.Options) {
		return []Effect{PresentNotice{Notice: NoticeInvalidOption}}, nil
	}

	effects := discardPrompt(fs)

	verdict, err := m.scorer.ScoreChoice(ctx, fs.Session, q, chosenIndex)
	if err != nil {
		return nil, err
	}

	gained := 0
	if verdict.Correct {
		gained = 1
	}
	effects = append(effects, PresentChoiceFeedback{
		Correct:       verdict.Correct,
		CorrectOption: verdict.CorrectOption,
	})

	return m.advance(ctx, slot, effects, gained)
}

// acceptOpenTurn runs one open turn: grade (possibly failing to), persist the
// answer and the progress update, then advance. Grading failure never stalls
// the session.
func (m *Machine) acceptOpenTurn(ctx context.Context, slot *userSlot, q *entities.Question, text string) ([]Effect, error) {
	fs := slot.state
	effects := discardPrompt(fs)

	verdict, err := m.scorer.ScoreOpen(ctx, fs.Session, q, fs.TopicTitle, text)
	if err != nil {
		return nil, err
	}

	gained := 0
	if verdict.Counts() {
		gained = 1
	}
	effects = append(effects, PresentOpenFeedback{
		Graded:  verdict.Graded,
		Score:   verdict.Score,
		Comment: verdict.Comment,
	})

	return m.advance(ctx, slot, effects, gained)
}

// advance persists the progress update and moves the cursor. The in-memory
// cursor changes only after the write succeeds, so state and persisted
// progress stay in lockstep. On exhaustion it produces the summary and
// discards the flow.
func (m *Machine) advance(ctx context.Context, slot *userSlot, effects []Effect, gained int) ([]Effect, error) {
	fs := slot.state
	session := fs.Session

	idx := session.Idx + 1
	correct := session.CorrectCount + gained
	if err := m.sessions.UpdateProgress(ctx, session.ID, idx, correct); err != nil {
		return nil, err
	}
	session.Idx = idx
	session.CorrectCount = correct

	if !session.Finished() {
		effects = append(effects, PresentQuestion{
			Question: fs.Questions[idx],
			Position: idx + 1,
			Total:    len(fs.Questions),
		})
		return effects, nil
	}

	return m.finishSession(ctx, slot, effects)
}

// finishSession stamps the session, runs the remediation aggregation and
// discards the flow state. The flow is discarded even when the stamp or the
// aggregation fails: progress is already persisted at the last question, so
// keeping the state would leave the user stuck on a closed batch.
func (m *Machine) finishSession(ctx context.Context, slot *userSlot, effects []Effect) ([]Effect, error) {
	fs := slot.state
	session := fs.Session

	if err := m.sessions.FinishSession(ctx, session.ID); err != nil {
		slot.state = nil
		return nil, err
	}

	weak, err := m.sessions.AnswersByTopicStats(ctx, session.ID)
	if err != nil {
		slot.state = nil
		return nil, err
	}

	m.logger.Info("session finished",
		zap.Int64("user_id", session.UserID),
		zap.Int64("session_id", session.ID),
		zap.Int("correct", session.CorrectCount),
		zap.Int("total", session.TotalQuestions),
	)

	effects = append(effects, PresentSummary{
		TopicTitle: fs.TopicTitle,
		Level:      fs.Level,
		Correct:    session.CorrectCount,
		Total:      session.TotalQuestions,
		WeakTopics: weak,
	}, ShowMainMenu{})

	slot.state = nil
	return effects, nil
}

// discardPrompt emits a ClearPrompt for a still-live question keyboard and
// forgets the reference.
func discardPrompt(fs *FlowState) []Effect {
	if fs == nil || fs.PromptMessageID == 0 {
		return nil
	}
	effect := ClearPrompt{ChatID: fs.PromptChatID, MessageID: fs.PromptMessageID}
	fs.PromptChatID = 0
	fs.PromptMessageID = 0
	return []Effect{effect}
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
