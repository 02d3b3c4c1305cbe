package openai

import (
	"context"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lgsd123456/MiAudioPlay/pkg/ai"
)

var _ ai.Client = (*openAi)(nil)

type openAi struct {
	model  string
	client *openai.Client
	ctx    context.Context
}

// NewOpenAi 创建OpenAI兼容客户端，baseURL可指向任何兼容服务
func NewOpenAi(apiKey, modelName, baseURL string) *openAi {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &openAi{
		model:  modelName,
		client: openai.NewClientWithConfig(config),
		ctx:    context.Background(),
	}
}

func (o *openAi) Name() string {
	return "openai"
}

func (o *openAi) HandleText(msg string) (string, error) {
	resp, err := o.client.CreateChatCompletion(o.ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: msg,
			},
		},
		MaxTokens: 2000,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not get response from openai")
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}
