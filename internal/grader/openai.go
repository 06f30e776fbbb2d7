package grader

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const scoreSystemPrompt = "Ты — строгий, но доброжелательный экзаменатор. " +
	"Сравни ответ студента с эталоном и оцени кратко. " +
	"Верни строго JSON {\"score\":0..5,\"comment\":\"...\"}. Не раскрывай полностью эталон."

// OpenAIConfig configures the OpenAI-backed grader.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for OpenAI-compatible APIs
}

// OpenAIGrader implements Grader on the OpenAI Chat Completions API with a
// strict JSON-schema response format.
type OpenAIGrader struct {
	client *openai.Client
	model  string
}

// NewOpenAIGrader creates a new OpenAI grader.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIGrader{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Score asks the model to grade the user's answer against the reference.
// Every reply is schema-validated before use.
func (g *OpenAIGrader) Score(ctx context.Context, req GradeRequest) (GradeResult, error) {
	userMsg := fmt.Sprintf(
		"Тема: %s\nВопрос: %s\nЭталонный ответ: %s\nОтвет пользователя: %s\n"+
			"Оцени близость к эталону. Краткий комментарий — что добавить/исправить.",
		req.Topic, req.Question, req.ReferenceAnswer, req.UserAnswer,
	)

	schemaBytes, err := json.Marshal(scoreSchemaDefinition)
	if err != nil {
		return GradeResult{}, fmt.Errorf("marshal score schema: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scoreSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   scoreSchemaName,
				Schema: json.RawMessage(schemaBytes),
				Strict: true,
			},
		},
	})
	if err != nil {
		return GradeResult{}, fmt.Errorf("grade open answer: %w", err)
	}

	if len(resp.Choices) == 0 {
		return GradeResult{}, &ErrInvalidReply{Err: fmt.Errorf("no choices in response")}
	}

	return validateReply([]byte(resp.Choices[0].Message.Content))
}
