package happi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/internal/lyrics"
	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
)

var logger = log.With().Str("component", "happi").Logger()

// searchResponse Happi.dev搜索API响应
type searchResponse struct {
	Success bool `json:"success"`
	Result  []struct {
		Track  string `json:"track"`
		Artist string `json:"artist"`
		Lyrics string `json:"lyrics"`
	} `json:"result"`
}

// Client Happi.dev音乐API客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ provider.Provider = (*Client)(nil)

// NewClient 创建新的Happi.dev客户端，apiKey可为空
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.happi.dev/v1/music",
		apiKey:     apiKey,
	}
}

// Name 获取提供商名称
func (c *Client) Name() string {
	return "Happi.dev"
}

// Search 搜索歌词
func (c *Client) Search(ctx context.Context, q provider.Query) (string, error) {
	query := url.QueryEscape(q.Artist + " " + q.Title)
	reqURL := fmt.Sprintf("%s?q=%s&limit=1&type=track", c.baseURL, query)
	if c.apiKey != "" {
		reqURL += "&apikey=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "MiAudioPlay/1.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Result) == 0 {
		return "", provider.ErrNotFound
	}
	text := result.Result[0].Lyrics
	if strings.TrimSpace(text) == "" {
		return "", provider.ErrNotFound
	}

	logger.Debug().Str("track", result.Result[0].Track).Msg("lyrics found")
	return lyrics.ConvertPlainToLRC(text), nil
}
