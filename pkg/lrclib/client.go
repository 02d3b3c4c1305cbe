package lrclib

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

var logger = log.With().Str("component", "lrclib").Logger()

var _ provider.Provider = (*Client)(nil)

// Client LRCLib客户端
// https://lrclib.net/ 免费歌词库，支持同步歌词，不需要密钥
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// LRCLibResponse LRCLib API响应结构
type LRCLibResponse struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// NewClient 创建新的LRCLib客户端
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://lrclib.net/api",
	}
}

// Name 返回提供商名称
func (c *Client) Name() string {
	return "LRCLib"
}

// Search 检索歌词。优先返回同步歌词，没有同步歌词时把纯文本升级成LRC格式。
func (c *Client) Search(ctx context.Context, q provider.Query) (string, error) {
	params := url.Values{}
	params.Set("track_name", q.Title)
	params.Set("artist_name", q.Artist)
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}

	searchURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "MiAudioPlay/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request returned status %d", resp.StatusCode)
	}

	var results []LRCLibResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	logger.Debug().Int("results", len(results)).Str("title", q.Title).Str("artist", q.Artist).Msg("Search finished")

	if len(results) == 0 {
		return "", provider.ErrNotFound
	}

	best := findBestMatch(results, q.Title, q.Artist, q.DurationSeconds())

	if best.SyncedLyrics != "" {
		return best.SyncedLyrics, nil
	}
	if best.PlainLyrics != "" {
		return lyrics.ConvertPlainToLRC(best.PlainLyrics), nil
	}
	return "", provider.ErrNotFound
}

// findBestMatch 从搜索结果中找到最佳匹配。
// 先按标题+歌手 > 仅标题 > 全部 分出候选池，再在池里挑时长最接近的；
// 时长误差3秒以内直接认定匹配。
func findBestMatch(results []LRCLibResponse, title, artist string, durationSec int) *LRCLibResponse {
	var exact, titleOnly []*LRCLibResponse
	for i := range results {
		r := &results[i]
		if containsIgnoreCase(r.TrackName, title) && containsIgnoreCase(r.ArtistName, artist) {
			exact = append(exact, r)
		} else if containsIgnoreCase(r.TrackName, title) {
			titleOnly = append(titleOnly, r)
		}
	}

	pool := exact
	if len(pool) == 0 {
		pool = titleOnly
	}
	if len(pool) == 0 {
		pool = make([]*LRCLibResponse, len(results))
		for i := range results {
			pool[i] = &results[i]
		}
	}

	if durationSec > 0 {
		const maxDurationDiff = 3
		best := pool[0]
		minDiff := abs(int(best.Duration) - durationSec)
		for _, r := range pool {
			diff := abs(int(r.Duration) - durationSec)
			if diff <= maxDurationDiff {
				return r
			}
			if diff < minDiff {
				minDiff = diff
				best = r
			}
		}
		return best
	}

	return pool[0]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// containsIgnoreCase 忽略大小写和空格的包含关系检查
func containsIgnoreCase(s1, s2 string) bool {
	n1 := strings.ReplaceAll(strings.ToLower(s1), " ", "")
	n2 := strings.ReplaceAll(strings.ToLower(s2), " ", "")
	return strings.Contains(n1, n2) || strings.Contains(n2, n1)
}
