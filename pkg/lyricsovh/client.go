package lyricsovh

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

var logger = log.With().Str("component", "lyricsovh").Logger()

// lyricsResponse Lyrics.ovh API响应
type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
}

// Client Lyrics.ovh客户端，免费纯文本歌词接口
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ provider.Provider = (*Client)(nil)

// NewClient 创建新的Lyrics.ovh客户端
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.lyrics.ovh/v1",
	}
}

// Name 获取提供商名称
func (c *Client) Name() string {
	return "Lyrics.ovh"
}

// Search 获取歌词。返回纯文本，统一转为零时间轴LRC。
func (c *Client) Search(ctx context.Context, q provider.Query) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(q.Artist), url.PathEscape(q.Title))

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

	// 未收录的歌曲返回404
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

	logger.Debug().Str("title", q.Title).Msg("lyrics fetched")
	return lyrics.ConvertPlainToLRC(result.Lyrics), nil
}
