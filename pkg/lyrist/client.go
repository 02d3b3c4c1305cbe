package lyrist

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

var logger = log.With().Str("component", "lyrist").Logger()

// lyricsResponse Lyrist API响应
type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Client Lyrist客户端，瀑布流末位的兜底来源
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ provider.Provider = (*Client)(nil)

// NewClient 创建新的Lyrist客户端
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://lyrist.vercel.app/api",
	}
}

// Name 获取提供商名称
func (c *Client) Name() string {
	return "Lyrist"
}

// Search 搜索歌词
func (c *Client) Search(ctx context.Context, q provider.Query) (string, error) {
	query := url.PathEscape(q.Artist + " " + q.Title)
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "MiAudioPlay/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", provider.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result lyricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if strings.TrimSpace(result.Lyrics) == "" {
		return "", provider.ErrNotFound
	}

	logger.Debug().Str("title", result.Title).Msg("lyrics found")
	return lyrics.ConvertPlainToLRC(result.Lyrics), nil
}
