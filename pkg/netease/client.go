package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
)

var logger = log.With().Str("component", "netease").Logger()

// searchResponse 网易云搜索API响应
type searchResponse struct {
	Result struct {
		Songs []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"songs"`
	} `json:"result"`
}

// lyricResponse 网易云歌词API响应
type lyricResponse struct {
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	Tlyric struct {
		Lyric string `json:"lyric"`
	} `json:"tlyric"`
}

// Client 网易云音乐客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
}

var _ provider.Provider = (*Client)(nil)

// NewClient 创建新的网易云音乐客户端，cookie可为空
func NewClient(cookie string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://music.163.com",
		cookie:     cookie,
	}
}

// Name 获取提供商名称
func (c *Client) Name() string {
	return "NetEase Cloud Music"
}

// Search 搜索歌曲并获取歌词。搜索结果可能包含翻唱或同名歌曲，
// 按匹配度排序后逐个尝试，直到拿到非空歌词为止。
func (c *Client) Search(ctx context.Context, q provider.Query) (string, error) {
	ids, err := c.searchCandidates(ctx, q.Title, q.Artist)
	if err != nil {
		return "", err
	}

	for _, id := range ids {
		lyrics, err := c.getLyrics(ctx, id)
		if err != nil {
			logger.Debug().Err(err).Int("song_id", id).Msg("lyric fetch failed, trying next candidate")
			continue
		}
		if strings.TrimSpace(lyrics) != "" {
			return lyrics, nil
		}
	}
	return "", provider.ErrNotFound
}

// searchCandidates 搜索歌曲，返回按匹配度排序的候选ID列表
func (c *Client) searchCandidates(ctx context.Context, title, artist string) ([]int, error) {
	searchURL := fmt.Sprintf("%s/api/search/get/web?csrf_token=hlpretag&hlposttag=&s=%s&type=1&limit=100",
		c.baseURL, url.QueryEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API request failed with status %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(searchResp.Result.Songs) == 0 {
		return nil, provider.ErrNotFound
	}

	// 歌手和歌名都匹配的排在前面，只匹配歌名的垫后
	var exact, titleOnly []int
	for _, song := range searchResp.Result.Songs {
		if !containsIgnoreCase(song.Name, title) {
			continue
		}
		matchedArtist := false
		for _, a := range song.Artists {
			if containsIgnoreCase(a.Name, artist) {
				matchedArtist = true
				break
			}
		}
		if matchedArtist {
			exact = append(exact, song.ID)
		} else {
			titleOnly = append(titleOnly, song.ID)
		}
	}

	ids := append(exact, titleOnly...)
	if len(ids) == 0 {
		return nil, provider.ErrNotFound
	}
	logger.Debug().Int("candidates", len(ids)).Str("title", title).Msg("search candidates collected")
	return ids, nil
}

// getLyrics 按歌曲ID获取歌词
func (c *Client) getLyrics(ctx context.Context, songID int) (string, error) {
	lyricURL := fmt.Sprintf("%s/api/song/lyric?os=pc&id=%s&lv=-1&kv=-1&tv=-1", c.baseURL, strconv.Itoa(songID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lyricURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create lyric request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send lyric request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lyric API request failed with status %d", resp.StatusCode)
	}

	var lyricResp lyricResponse
	if err := json.NewDecoder(resp.Body).Decode(&lyricResp); err != nil {
		return "", fmt.Errorf("failed to decode lyric response: %w", err)
	}
	return lyricResp.Lrc.Lyric, nil
}

// normalizeString 标准化字符串（转小写，去空格）
func normalizeString(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// containsIgnoreCase 忽略大小写和空格的包含关系检查
func containsIgnoreCase(s1, s2 string) bool {
	norm1, norm2 := normalizeString(s1), normalizeString(s2)
	return strings.Contains(norm1, norm2) || strings.Contains(norm2, norm1)
}
