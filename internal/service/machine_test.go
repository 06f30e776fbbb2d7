package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/grader"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
)

const testUser int64 = 42

type machineFixture struct {
	machine  *Machine
	content  *fakeContent
	sessions *fakeSessions
	grader   *grader.MockGrader
}

func newMachineFixture(content *fakeContent, replies ...grader.MockReply) *machineFixture {
	sessions := newFakeSessions()
	mock := grader.NewMockGrader(replies...)
	selector := NewSelector(content)
	scorer := NewScorer(sessions, mock, time.Second, zap.NewNop())
	return &machineFixture{
		machine:  NewMachine(content, sessions, selector, scorer, zap.NewNop()),
		content:  content,
		sessions: sessions,
		grader:   mock,
	}
}

// smallBasicContent has one basic topic with three mcq questions, each with
// correct option index 0.
func smallBasicContent() *fakeContent {
	return &fakeContent{
		levels: []entities.Level{entities.LevelBasic, entities.LevelAdvanced},
		topics: []*entities.Topic{
			{ID: 1, Title: "Maps", Level: entities.LevelBasic, Active: true, QuestionCount: 3},
		},
		questions: map[int64][]*entities.Question{
			1: {mcqQuestion(101, 1, 0), mcqQuestion(102, 1, 0), mcqQuestion(103, 1, 0)},
		},
	}
}

func handle(t *testing.T, m *Machine, a Action) []Effect {
	t.Helper()
	effects, err := m.Handle(context.Background(), a)
	require.NoError(t, err)
	return effects
}

// enterSession walks the flow to the first question of the "Maps" topic.
func enterSession(t *testing.T, f *machineFixture) {
	t.Helper()
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionSelectLevel, Level: entities.LevelBasic})
	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "Maps"})

	require.IsType(t, SessionStarted{}, effects[0])
	q := effects[1].(PresentQuestion)
	require.Equal(t, 1, q.Position)
}

func findSummary(effects []Effect) (PresentSummary, bool) {
	for _, e := range effects {
		if s, ok := e.(PresentSummary); ok {
			return s, true
		}
	}
	return PresentSummary{}, false
}

func findNotice(effects []Effect) (NoticeKind, bool) {
	for _, e := range effects {
		if n, ok := e.(PresentNotice); ok {
			return n.Notice, true
		}
	}
	return 0, false
}

func TestMachine_StartPresentsEligibleLevels(t *testing.T) {
	f := newMachineFixture(smallBasicContent())

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	require.Len(t, effects, 1)
	levels := effects[0].(PresentLevels)
	// advanced has no topics with questions, so only basic is offered
	require.Equal(t, []entities.Level{entities.LevelBasic}, levels.Levels)
}

func TestMachine_StartWithoutContent(t *testing.T) {
	f := newMachineFixture(&fakeContent{})

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeNoLevels, notice)
	require.False(t, f.machine.HasActiveFlow(testUser))
}

func TestMachine_UnknownTopicTextReprompts(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionSelectLevel, Level: entities.LevelBasic})

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "No Such Topic"})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeUseTopicButtons, notice)
	require.Empty(t, f.sessions.sessions)
}

func TestMachine_TopicTitleMatchIsCaseInsensitive(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionSelectLevel, Level: entities.LevelBasic})

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "  mApS "})
	require.IsType(t, SessionStarted{}, effects[0])
}

func TestMachine_FullRunAllCorrect(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	for i, qid := range []int64{101, 102} {
		effects := handle(t, f.machine, Action{
			UserID: testUser, Kind: ActionChoice, QuestionID: qid, OptionIndex: 0,
		})
		feedback := effects[0].(PresentChoiceFeedback)
		require.True(t, feedback.Correct)
		next := effects[1].(PresentQuestion)
		require.Equal(t, i+2, next.Position)
	}

	effects := handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 103, OptionIndex: 0,
	})
	summary, ok := findSummary(effects)
	require.True(t, ok)
	require.Equal(t, 3, summary.Correct)
	require.Equal(t, 3, summary.Total)
	require.Empty(t, summary.WeakTopics)

	require.False(t, f.machine.HasActiveFlow(testUser))
	require.Equal(t, []int64{1}, f.sessions.finishedIDs)
	require.Len(t, f.sessions.answers, 3)

	stored := f.sessions.sessions[1]
	require.Equal(t, 3, stored.Idx)
	require.Equal(t, 3, stored.CorrectCount)
}

func TestMachine_TypedNumberAnswersQuestion(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "2"})
	feedback := effects[0].(PresentChoiceFeedback)
	require.False(t, feedback.Correct)
	require.Equal(t, "first", feedback.CorrectOption)

	require.Len(t, f.sessions.answers, 1)
	require.Equal(t, 1, *f.sessions.answers[0].ChosenIndex)
}

func TestMachine_NonNumericTextOnMCQ(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "the first one"})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeTypeOptionNumber, notice)
	require.Empty(t, f.sessions.answers)
}

func TestMachine_StaleTapIsNoOp(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0,
	})

	// Second tap on the already-answered question must not double-score.
	effects := handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 1,
	})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeTurnClosed, notice)

	require.Len(t, f.sessions.answers, 1)
	require.Equal(t, 1, f.sessions.sessions[1].Idx)
}

func TestMachine_OutOfRangeOptionIsNoOp(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	effects := handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 7,
	})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeInvalidOption, notice)

	require.Empty(t, f.sessions.answers)
	require.Equal(t, 0, f.sessions.sessions[1].Idx)
}

func TestMachine_TapWithoutSession(t *testing.T) {
	f := newMachineFixture(smallBasicContent())

	effects := handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0,
	})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeSessionInactive, notice)
}

func TestMachine_GradingFailureAdvancesSession(t *testing.T) {
	content := &fakeContent{
		levels: []entities.Level{entities.LevelBasic},
		topics: []*entities.Topic{
			{ID: 1, Title: "Maps", Level: entities.LevelBasic, Active: true, QuestionCount: 2},
		},
		questions: map[int64][]*entities.Question{
			1: {openQuestion(201, 1), openQuestion(202, 1)},
		},
	}
	f := newMachineFixture(content, grader.MockReply{Err: errors.New("upstream down")})
	enterSession(t, f)

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "my answer"})
	feedback := effects[0].(PresentOpenFeedback)
	require.False(t, feedback.Graded)
	next := effects[1].(PresentQuestion)
	require.Equal(t, 2, next.Position)

	require.Len(t, f.sessions.answers, 1)
	require.True(t, f.sessions.answers[0].Ungraded())
	require.Equal(t, 1, f.sessions.sessions[1].Idx)
	require.Equal(t, 0, f.sessions.sessions[1].CorrectCount)
}

func TestMachine_OpenRunMixedScores(t *testing.T) {
	content := &fakeContent{
		levels: []entities.Level{entities.LevelBasic},
		topics: []*entities.Topic{
			{ID: 1, Title: "Maps", Level: entities.LevelBasic, Active: true, QuestionCount: 2},
		},
		questions: map[int64][]*entities.Question{
			1: {openQuestion(201, 1), openQuestion(202, 1)},
		},
	}
	f := newMachineFixture(content,
		grader.MockReply{Result: grader.GradeResult{Score: 5, Comment: "good"}},
		grader.MockReply{Result: grader.GradeResult{Score: 2, Comment: "weak"}},
	)
	enterSession(t, f)

	handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "first answer"})
	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "second answer"})

	summary, ok := findSummary(effects)
	require.True(t, ok)
	require.Equal(t, 1, summary.Correct)
	require.Equal(t, 2, summary.Total)
}

func TestMachine_SummaryCarriesWeakTopics(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	f.sessions.stats = []repository.TopicMissStat{
		{Title: "Slices", Level: entities.LevelBasic, MissCount: 2},
		{Title: "Maps", Level: entities.LevelBasic, MissCount: 1},
	}
	enterSession(t, f)

	var summary PresentSummary
	for _, qid := range []int64{101, 102, 103} {
		effects := handle(t, f.machine, Action{
			UserID: testUser, Kind: ActionChoice, QuestionID: qid, OptionIndex: 1,
		})
		if s, ok := findSummary(effects); ok {
			summary = s
		}
	}

	require.Len(t, summary.WeakTopics, 2)
	require.Equal(t, "Slices", summary.WeakTopics[0].Title)
	require.Equal(t, 2, summary.WeakTopics[0].MissCount)
}

func TestMachine_MainMenuAbandonsWithoutFinishing(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0,
	})
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionMainMenu})

	require.False(t, f.machine.HasActiveFlow(testUser))
	require.Empty(t, f.sessions.finishedIDs)
	// the already-logged answer survives abandonment
	require.Len(t, f.sessions.answers, 1)
}

func TestMachine_StartDiscardsActiveSession(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	require.IsType(t, PresentLevels{}, effects[len(effects)-1])

	// the old session's question no longer accepts taps
	effects = handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0,
	})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeTurnClosed, notice)
	require.Empty(t, f.sessions.answers)
}

func TestMachine_PersistenceFailureKeepsCursor(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)

	f.sessions.updateErr = errors.New("db down")
	_, err := f.machine.Handle(context.Background(), Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0,
	})
	require.Error(t, err)

	// cursor did not move; retrying the same question works once the db is back
	f.sessions.updateErr = nil
	effects := handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0,
	})
	require.IsType(t, PresentChoiceFeedback{}, effects[0])
	require.Equal(t, 1, f.sessions.sessions[1].Idx)
}

func TestMachine_AwaitingLevelChoiceTracksStage(t *testing.T) {
	f := newMachineFixture(smallBasicContent())

	require.False(t, f.machine.AwaitingLevelChoice(testUser))

	handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	require.True(t, f.machine.AwaitingLevelChoice(testUser))

	handle(t, f.machine, Action{UserID: testUser, Kind: ActionSelectLevel, Level: entities.LevelBasic})
	require.False(t, f.machine.AwaitingLevelChoice(testUser))

	handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "Maps"})
	require.False(t, f.machine.AwaitingLevelChoice(testUser))
}

func TestMachine_OpenAnswerSpellingLevelLabelIsGraded(t *testing.T) {
	content := &fakeContent{
		levels: []entities.Level{entities.LevelBasic},
		topics: []*entities.Topic{
			{ID: 1, Title: "Maps", Level: entities.LevelBasic, Active: true, QuestionCount: 1},
		},
		questions: map[int64][]*entities.Question{
			1: {openQuestion(201, 1)},
		},
	}
	f := newMachineFixture(content,
		grader.MockReply{Result: grader.GradeResult{Score: 2, Comment: "off topic"}},
	)
	enterSession(t, f)

	effects := handle(t, f.machine, Action{UserID: testUser, Kind: ActionText, Text: "🟢 Basic"})
	feedback, ok := effects[0].(PresentOpenFeedback)
	require.True(t, ok)
	require.True(t, feedback.Graded)

	require.Equal(t, 1, f.grader.CallCount())
	require.Equal(t, "🟢 Basic", f.grader.Calls[0].UserAnswer)
}

func TestMachine_FinishFailureDiscardsFlow(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)
	f.sessions.finishErr = errors.New("db down")

	handle(t, f.machine, Action{UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0})
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionChoice, QuestionID: 102, OptionIndex: 0})

	_, err := f.machine.Handle(context.Background(), Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 103, OptionIndex: 0,
	})
	require.Error(t, err)

	// the closed batch is not retryable, so the flow must not linger
	require.False(t, f.machine.HasActiveFlow(testUser))
	effects := handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 103, OptionIndex: 0,
	})
	notice, ok := findNotice(effects)
	require.True(t, ok)
	require.Equal(t, NoticeSessionInactive, notice)

	// a fresh start works immediately
	effects = handle(t, f.machine, Action{UserID: testUser, Kind: ActionStart})
	require.IsType(t, PresentLevels{}, effects[len(effects)-1])
}

func TestMachine_StatsFailureDiscardsFlow(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)
	f.sessions.statsErr = errors.New("db down")

	handle(t, f.machine, Action{UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0})
	handle(t, f.machine, Action{UserID: testUser, Kind: ActionChoice, QuestionID: 102, OptionIndex: 0})

	_, err := f.machine.Handle(context.Background(), Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 103, OptionIndex: 0,
	})
	require.Error(t, err)
	require.False(t, f.machine.HasActiveFlow(testUser))
	// the session itself was stamped before the aggregation failed
	require.Equal(t, []int64{1}, f.sessions.finishedIDs)
}

func TestMachine_ClearPromptEmittedOnAnswer(t *testing.T) {
	f := newMachineFixture(smallBasicContent())
	enterSession(t, f)
	f.machine.RecordPrompt(testUser, 900, 77)

	effects := handle(t, f.machine, Action{
		UserID: testUser, Kind: ActionChoice, QuestionID: 101, OptionIndex: 0,
	})
	clear, ok := effects[0].(ClearPrompt)
	require.True(t, ok)
	require.Equal(t, int64(900), clear.ChatID)
	require.Equal(t, 77, clear.MessageID)
}

func TestSessionMode(t *testing.T) {
	mcq := mcqQuestion(1, 1, 0)
	open := openQuestion(2, 1)

	tests := []struct {
		name      string
		questions []*entities.Question
		want      entities.SessionMode
	}{
		{"all mcq", []*entities.Question{mcq, mcq}, entities.ModeTest},
		{"all open", []*entities.Question{open, open}, entities.ModeOpen},
		{"mixed", []*entities.Question{mcq, open}, entities.ModeMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sessionMode(tt.questions); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
