package qqmusic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
)

var logger = log.With().Str("component", "qqmusic").Logger()

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// searchResponse QQ音乐搜索API响应
type searchResponse struct {
	Code int `json:"code"`
	Data struct {
		Song struct {
			List []struct {
				Mid    string `json:"mid"`
				Name   string `json:"name"`
				Singer []struct {
					Name string `json:"name"`
				} `json:"singer"`
			} `json:"list"`
		} `json:"song"`
	} `json:"data"`
}

// lyricResponse QQ音乐歌词API响应，lyric字段为base64编码的LRC文本
type lyricResponse struct {
	Retcode int    `json:"retcode"`
	Lyric   string `json:"lyric"`
	Trans   string `json:"trans"`
}

// Client QQ音乐客户端，先搜索songmid再按mid拉取歌词
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
}

var _ provider.Provider = (*Client)(nil)

// NewClient 创建新的QQ音乐客户端，cookie可为空
func NewClient(cookie string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://c.y.qq.com",
		cookie:     cookie,
	}
}

// Name 获取提供商名称
func (c *Client) Name() string {
	return "QQ Music"
}

// Search 搜索歌曲并获取歌词
func (c *Client) Search(ctx context.Context, q provider.Query) (string, error) {
	mid, err := c.searchSong(ctx, q.Title, q.Artist)
	if err != nil {
		return "", err
	}
	logger.Debug().Str("mid", mid).Str("title", q.Title).Msg("found song mid")
	return c.getLyrics(ctx, mid)
}

// searchSong 搜索歌曲，返回第一个结果的songmid
func (c *Client) searchSong(ctx context.Context, title, artist string) (string, error) {
	keyword := url.QueryEscape(artist + " " + title)
	reqURL := c.baseURL + "/soso/fcgi-bin/client_search_cp?ct=24&qqmusic_ver=1298&new_json=1&remoteplace=txt.yqq.song&" +
		"searchid=&t=0&aggr=1&cr=1&catZhida=1&lossless=0&flag_qc=0&p=1&n=10&w=" + keyword + "&" +
		"g_tk=5381&loginUin=0&hostUin=0&format=json&inCharset=utf8&outCharset=utf-8&notice=0&" +
		"platform=yqq.json&needNewCode=0"

	body, err := c.doGet(ctx, reqURL)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(result.Data.Song.List) == 0 {
		return "", provider.ErrNotFound
	}

	song := result.Data.Song.List[0]
	if song.Mid == "" {
		return "", provider.ErrNotFound
	}
	return song.Mid, nil
}

// getLyrics 按songmid获取歌词并解码
func (c *Client) getLyrics(ctx context.Context, mid string) (string, error) {
	reqURL := c.baseURL + "/lyric/fcgi-bin/fcg_query_lyric_new.fcg?songmid=" + url.QueryEscape(mid) + "&" +
		"g_tk=5381&loginUin=0&hostUin=0&format=json&inCharset=utf8&outCharset=utf-8&" +
		"notice=0&platform=yqq.json&needNewCode=0"

	body, err := c.doGet(ctx, reqURL)
	if err != nil {
		return "", fmt.Errorf("lyric request failed: %w", err)
	}

	var result lyricResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode lyric response: %w", err)
	}
	if result.Lyric == "" {
		return "", provider.ErrNotFound
	}

	decoded, err := base64.StdEncoding.DecodeString(result.Lyric)
	if err != nil {
		logger.Debug().Err(err).Str("mid", mid).Msg("lyric is not valid base64")
		return "", provider.ErrNotFound
	}
	lyrics := strings.TrimSpace(string(decoded))
	if lyrics == "" {
		return "", provider.ErrNotFound
	}
	return lyrics, nil
}

func (c *Client) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", "https://y.qq.com")
	req.Header.Set("User-Agent", userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
