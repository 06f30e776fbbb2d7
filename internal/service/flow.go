package service

import (
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
)

// Stage is the explicit flow stage of a user's quiz session.
type Stage int

const (
	StageChooseLevel Stage = iota
	StageChooseTopic
	StageAnswering
)

// ActionKind discriminates inbound user actions.
type ActionKind int

const (
	// ActionStart begins a fresh quiz, discarding any existing flow.
	ActionStart ActionKind = iota
	// ActionSelectLevel carries a level choice (delivery maps button labels
	// to level values).
	ActionSelectLevel
	// ActionText carries free text: a topic title, an open answer, or a typed
	// option number, interpreted by the current stage.
	ActionText
	// ActionChoice carries an inline option tap for a specific question.
	ActionChoice
	// ActionMainMenu abandons the flow without persisted side effects.
	ActionMainMenu
	// ActionBackToLevels rewinds the flow to level choice.
	ActionBackToLevels
)

// Action is one inbound user action, as delivered by the transport.
type Action struct {
	UserID      int64
	Kind        ActionKind
	Level       entities.Level // ActionSelectLevel
	Text        string         // ActionText
	QuestionID  int64          // ActionChoice
	OptionIndex int            // ActionChoice
}

// TopicOption is a selectable topic as presented to the user.
type TopicOption struct {
	ID            int64
	Title         string
	Level         entities.Level
	QuestionCount int
}

// NoticeKind enumerates the short informational messages the flow can emit.
// The delivery layer owns the wording.
type NoticeKind int

const (
	NoticeNoLevels NoticeKind = iota
	NoticeNoTopicsForLevel
	NoticeNoQuestionsForTopic
	NoticeUseLevelButtons
	NoticeUseTopicButtons
	NoticeTypeOptionNumber
	NoticeInvalidOption
	NoticeTurnClosed
	NoticeSessionInactive
	NoticeMainMenu
)

// Effect is a semantic render request for the transport. The core never
// formats chat-specific markup.
type Effect interface{ isEffect() }

// PresentLevels asks the transport to offer a level choice.
type PresentLevels struct {
	Levels []entities.Level
}

// PresentTopics asks the transport to offer a topic choice.
type PresentTopics struct {
	Level             entities.Level
	Topics            []TopicOption
	AllowBackToLevels bool
}

// SessionStarted announces a freshly created session.
type SessionStarted struct {
	TopicTitle string
	Level      entities.Level
	Total      int
}

// PresentQuestion asks the transport to show the current question.
// Position is 1-based.
type PresentQuestion struct {
	Question *entities.Question
	Position int
	Total    int
}

// PresentChoiceFeedback reports the verdict of an mcq turn.
type PresentChoiceFeedback struct {
	Correct       bool
	CorrectOption string
}

// PresentOpenFeedback reports the verdict of an open turn. Graded is false
// when the grading call failed and the answer was stored ungraded.
type PresentOpenFeedback struct {
	Graded  bool
	Score   int
	Comment string
}

// PresentSummary reports the end-of-session result and remediation list.
type PresentSummary struct {
	TopicTitle string
	Level      entities.Level
	Correct    int
	Total      int
	WeakTopics []repository.TopicMissStat
}

// PresentNotice shows a short informational message.
type PresentNotice struct {
	Notice NoticeKind
}

// ClearPrompt asks the transport to disable the input controls of a
// previously rendered question message.
type ClearPrompt struct {
	ChatID    int64
	MessageID int
}

// ShowMainMenu asks the transport to restore the main menu controls.
type ShowMainMenu struct{}

func (PresentLevels) isEffect()         {}
func (PresentTopics) isEffect()         {}
func (SessionStarted) isEffect()        {}
func (PresentQuestion) isEffect()       {}
func (PresentChoiceFeedback) isEffect() {}
func (PresentOpenFeedback) isEffect()   {}
func (PresentSummary) isEffect()        {}
func (PresentNotice) isEffect()         {}
func (ClearPrompt) isEffect()           {}
func (ShowMainMenu) isEffect()          {}

// FlowState is the transient per-user progress through the quiz stages.
// It lives in process memory only; a restart loses in-flight quizzes but not
// their already-logged answers.
type FlowState struct {
	Stage      Stage
	Levels     []entities.Level
	Level      entities.Level
	Topics     map[string]TopicOption // keyed by folded title
	TopicList  []TopicOption
	TopicID    int64
	TopicTitle string

	Session   *entities.Session
	Questions []*entities.Question

	// Live question prompt whose input controls are still active.
	PromptChatID    int64
	PromptMessageID int
}

// CurrentQuestion returns the question at the cursor, or nil once the batch
// is exhausted.
func (fs *FlowState) CurrentQuestion() *entities.Question {
	if fs.Session == nil || fs.Session.Idx >= len(fs.Questions) {
		return nil
	}
	return fs.Questions[fs.Session.Idx]
}
