package chartlyrics

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/internal/lyrics"
	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
)

var logger = log.With().Str("component", "chartlyrics").Logger()

// searchResult ChartLyrics的XML响应，只取Lyric字段
type searchResult struct {
	XMLName xml.Name `xml:"GetLyricResult"`
	Lyric   string   `xml:"Lyric"`
}

// Client ChartLyrics客户端，SOAP风格的XML接口
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ provider.Provider = (*Client)(nil)

// NewClient 创建新的ChartLyrics客户端
func NewClient() *Client {
	return &Client{
		// 接口响应较慢，超时放宽到15秒
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "http://api.chartlyrics.com/apiv1.asmx",
	}
}

// Name 获取提供商名称
func (c *Client) Name() string {
	return "ChartLyrics"
}

// Search 搜索歌词
func (c *Client) Search(ctx context.Context, q provider.Query) (string, error) {
	reqURL := fmt.Sprintf("%s/SearchLyricDirect?artist=%s&song=%s",
		c.baseURL, url.QueryEscape(q.Artist), url.QueryEscape(q.Title))

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

	var result searchResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		// 查不到时接口常返回不完整的XML，按未找到处理
		logger.Debug().Err(err).Str("title", q.Title).Msg("xml decode failed")
		return "", provider.ErrNotFound
	}
	if strings.TrimSpace(result.Lyric) == "" {
		return "", provider.ErrNotFound
	}

	return lyrics.ConvertPlainToLRC(result.Lyric), nil
}
