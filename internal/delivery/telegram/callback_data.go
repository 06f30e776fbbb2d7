package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionQuiz = "quiz"
)

// Quiz sub-actions.
const (
	quizAnswer = "answer"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return callbackData{Raw: data}
	}

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildQuizAnswerCallback builds callback data for answering a quiz question.
func buildQuizAnswerCallback(questionID int64, optionIndex int) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{
			quizAnswer,
			strconv.FormatInt(questionID, 10),
			strconv.Itoa(optionIndex),
		},
	}.encode()
}

// parseQuizAnswerCallback extracts the question id and option index from quiz
// answer callback data. ok is false for anything malformed or foreign.
func parseQuizAnswerCallback(cd callbackData) (questionID int64, optionIndex int, ok bool) {
	if cd.Action != actionQuiz || len(cd.Params) != 3 || cd.Params[0] != quizAnswer {
		return 0, 0, false
	}

	questionID, err := strconv.ParseInt(cd.Params[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	optionIndex, err = strconv.Atoi(cd.Params[2])
	if err != nil {
		return 0, 0, false
	}

	return questionID, optionIndex, true
}
