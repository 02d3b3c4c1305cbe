package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/lgsd123456/MiAudioPlay/pkg/ai"
)

var _ ai.Client = (*gemini)(nil)

type gemini struct {
	model *genai.GenerativeModel
	ctx   context.Context
}

// NewGemini 创建Gemini客户端，modelName为空时使用默认模型
func NewGemini(apiKey, modelName string) (*gemini, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &gemini{client.GenerativeModel(modelName), ctx}, nil
}

func (g *gemini) Name() string {
	return "gemini"
}

func (g *gemini) HandleText(msg string) (string, error) {
	resp, err := g.model.GenerateContent(g.ctx, genai.Text(msg))
	if err != nil {
		log.Error().Err(err).Msg("could not get response from gemini")
		return "", err
	}
	return fmt.Sprint(resp.Candidates[0].Content.Parts[0]), nil
}
