// Package scraper 从各大歌词网站抓取歌词，作为API来源之外的兜底。
package scraper

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/internal/lyrics"
	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
)

var logger = log.With().Str("component", "scraper").Logger()

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// 抓取结果必须超过这个长度才算有效，过滤掉错误页和空壳页
const minLyricsLen = 50

var (
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	brRe          = regexp.MustCompile(`<br[^>]*>`)
	nonAlnumRe    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	geniusBlockRe = regexp.MustCompile(`(?s)data-lyrics-container="true"[^>]*>(.*?)</div>`)
	azCleanRe     = regexp.MustCompile(`[^a-z0-9]`)
)

// Scraper 多来源歌词爬虫，按优先级依次尝试各站点
type Scraper struct {
	httpClient *http.Client
}

var _ provider.Provider = (*Scraper)(nil)

// New 创建新的歌词爬虫
func New() *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name 获取提供商名称
func (s *Scraper) Name() string {
	return "Lyrics Scraper"
}

// Search 依次尝试各歌词网站，任意一个命中即返回
func (s *Scraper) Search(ctx context.Context, q provider.Query) (string, error) {
	sites := []struct {
		name string
		try  func(ctx context.Context, artist, title string) (string, error)
	}{
		{"azlyrics", s.tryAZLyrics},
		{"lyrics.com", s.tryLyricsCom},
		{"songlyrics", s.trySongLyrics},
		{"genius", s.tryGenius},
		{"metrolyrics", s.tryMetroLyrics},
	}

	for _, site := range sites {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		text, err := site.try(ctx, q.Artist, q.Title)
		if err != nil {
			logger.Debug().Err(err).Str("site", site.name).Msg("site failed, trying next")
			continue
		}
		if text != "" {
			logger.Debug().Str("site", site.name).Msg("lyrics scraped")
			return lyrics.ConvertPlainToLRC(text), nil
		}
	}
	return "", provider.ErrNotFound
}

// tryAZLyrics 歌词在版权注释标记之后的div里
func (s *Scraper) tryAZLyrics(ctx context.Context, artist, title string) (string, error) {
	cleanArtist := strings.ReplaceAll(azCleanRe.ReplaceAllString(strings.ToLower(artist), ""), "the", "")
	cleanTitle := azCleanRe.ReplaceAllString(strings.ToLower(title), "")
	pageURL := fmt.Sprintf("https://www.azlyrics.com/lyrics/%s/%s.html", cleanArtist, cleanTitle)

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return ExtractAZLyrics(html), nil
}

func (s *Scraper) tryLyricsCom(ctx context.Context, artist, title string) (string, error) {
	pageURL := "https://www.lyrics.com/lyrics/" + url.QueryEscape(artist+" "+title)

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return ExtractLyricsCom(html), nil
}

func (s *Scraper) trySongLyrics(ctx context.Context, artist, title string) (string, error) {
	cleanArtist := strings.ToLower(nonAlnumRe.ReplaceAllString(artist, "-"))
	cleanTitle := strings.ToLower(nonAlnumRe.ReplaceAllString(title, "-"))
	pageURL := fmt.Sprintf("http://www.songlyrics.com/%s/%s-lyrics/", cleanArtist, cleanTitle)

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return ExtractSongLyrics(html), nil
}

func (s *Scraper) tryGenius(ctx context.Context, artist, title string) (string, error) {
	cleanArtist := strings.ReplaceAll(artist, " ", "-")
	cleanTitle := strings.ReplaceAll(title, " ", "-")
	pageURL := fmt.Sprintf("https://genius.com/%s-%s-lyrics", cleanArtist, cleanTitle)

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return ExtractGenius(html), nil
}

func (s *Scraper) tryMetroLyrics(ctx context.Context, artist, title string) (string, error) {
	cleanArtist := strings.ToLower(nonAlnumRe.ReplaceAllString(artist, "-"))
	cleanTitle := strings.ToLower(nonAlnumRe.ReplaceAllString(title, "-"))
	pageURL := fmt.Sprintf("http://www.metrolyrics.com/%s-lyrics-%s.html", cleanTitle, cleanArtist)

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return ExtractMetroLyrics(html), nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ExtractAZLyrics 提取AZLyrics页面的歌词正文
func ExtractAZLyrics(page string) string {
	start := strings.Index(page, "<!-- Usage of azlyrics.com content")
	if start == -1 {
		return ""
	}
	start = strings.Index(page[start:], "-->") + start
	if start == -1 {
		return ""
	}
	start += 3
	end := strings.Index(page[start:], "</div>")
	if end == -1 {
		return ""
	}
	return cleanFragment(page[start : start+end])
}

// ExtractLyricsCom 歌词在id为lyric-body-text的pre标签里
func ExtractLyricsCom(page string) string {
	return extractBetween(page, `id="lyric-body-text"`, "</pre>")
}

// ExtractSongLyrics 歌词在id为songLyricsDiv的元素里
func ExtractSongLyrics(page string) string {
	return extractBetween(page, `id="songLyricsDiv"`, "</p>")
}

// ExtractGenius 歌词分布在多个data-lyrics-container块中
func ExtractGenius(page string) string {
	matches := geniusBlockRe.FindAllStringSubmatch(page, -1)
	var b strings.Builder
	for _, m := range matches {
		content := brRe.ReplaceAllString(m[1], "\n")
		content = strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(content, "")))
		if content != "" {
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return acceptIfLongEnough(strings.TrimSpace(b.String()))
}

// ExtractMetroLyrics 逐段收集class为verse的段落
func ExtractMetroLyrics(page string) string {
	var b strings.Builder
	searchFrom := 0
	for {
		verse := strings.Index(page[searchFrom:], `class="verse"`)
		if verse == -1 {
			break
		}
		verse += searchFrom
		contentStart := strings.Index(page[verse:], ">")
		if contentStart == -1 {
			break
		}
		contentStart += verse + 1
		contentEnd := strings.Index(page[contentStart:], "</p>")
		if contentEnd == -1 {
			break
		}
		contentEnd += contentStart

		text := tagRe.ReplaceAllString(strings.ReplaceAll(page[contentStart:contentEnd], "<br>", "\n"), "\n")
		b.WriteString(strings.TrimSpace(html.UnescapeString(text)))
		b.WriteString("\n\n")

		searchFrom = contentEnd + 4
	}
	return acceptIfLongEnough(strings.TrimSpace(b.String()))
}

// extractBetween 定位startMarker所在标签，取其后到endMarker之间的正文
func extractBetween(page, startMarker, endMarker string) string {
	start := strings.Index(page, startMarker)
	if start == -1 {
		return ""
	}
	gt := strings.Index(page[start:], ">")
	if gt == -1 {
		return ""
	}
	start += gt + 1
	end := strings.Index(page[start:], endMarker)
	if end == -1 {
		return ""
	}
	return cleanFragment(page[start : start+end])
}

func cleanFragment(fragment string) string {
	text := tagRe.ReplaceAllString(fragment, "\n")
	text = html.UnescapeString(text)

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimSpace(line))
		}
	}
	return acceptIfLongEnough(strings.Join(kept, "\n"))
}

func acceptIfLongEnough(text string) string {
	if len(text) <= minLyricsLen {
		return ""
	}
	return text
}
