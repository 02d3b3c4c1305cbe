// Package resolver 实现歌词解析的完整流程：本地歌词文件、缓存、
// 网络来源瀑布流，以及命中后的缓存和本地文件回写。
package resolver

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/internal/lyrics"
	"github.com/lgsd123456/MiAudioPlay/internal/netcheck"
	"github.com/lgsd123456/MiAudioPlay/pkg/lyricscache"
	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
	"github.com/lgsd123456/MiAudioPlay/pkg/sidecar"
)

var logger = log.With().Str("component", "resolver").Logger()

// Source 歌词的最终来源
type Source string

const (
	SourceLocalFile   Source = "local_file"
	SourceCache       Source = "cache"
	SourceLRCLib      Source = "lrclib"
	SourceQQMusic     Source = "qqmusic"
	SourceNetEase     Source = "netease"
	SourceLyricsOvh   Source = "lyricsovh"
	SourceChartLyrics Source = "chartlyrics"
	SourceHappi       Source = "happi"
	SourceScraper     Source = "scraper"
	SourceLyrist      Source = "lyrist"
)

// Result 一次解析的结果
type Result struct {
	Content string
	Lines   []lyrics.Line
	Source  Source
	Cached  bool
}

// Resolver 歌词解析器
type Resolver struct {
	cache     *lyricscache.Store
	netcheck  netcheck.Checker
	providers []provider.Provider
	sources   map[string]Source
}

// New 创建歌词解析器。providers按优先级排序，第一个命中即停止。
func New(cache *lyricscache.Store, checker netcheck.Checker, providers []provider.Provider) *Resolver {
	sources := map[string]Source{
		"LRCLib":              SourceLRCLib,
		"QQ Music":            SourceQQMusic,
		"NetEase Cloud Music": SourceNetEase,
		"Lyrics.ovh":          SourceLyricsOvh,
		"ChartLyrics":         SourceChartLyrics,
		"Happi.dev":           SourceHappi,
		"Lyrics Scraper":      SourceScraper,
		"Lyrist":              SourceLyrist,
	}
	return &Resolver{
		cache:     cache,
		netcheck:  checker,
		providers: providers,
		sources:   sources,
	}
}

// Resolve 解析歌词。依次尝试本地歌词文件、缓存、网络来源，
// 全部落空时返回ok=false。网络命中会顺手写入缓存和本地歌词文件，
// 本地和缓存命中不会重复回写。
func (r *Resolver) Resolve(ctx context.Context, q provider.Query) (*Result, bool) {
	rlog := logger.With().Str("trace_id", uuid.NewString()).
		Str("title", q.Title).Str("artist", q.Artist).Logger()

	// 1. 音频文件旁的.lrc优先级最高，用户手工放置的歌词不容置疑
	if q.FilePath != "" {
		if path, ok := sidecar.Find(q.FilePath); ok {
			content, err := os.ReadFile(path)
			if err == nil && strings.TrimSpace(string(content)) != "" {
				rlog.Info().Str("path", path).Msg("resolved from local lyric file")
				return r.result(string(content), SourceLocalFile, false), true
			}
			if err != nil {
				rlog.Warn().Err(err).Str("path", path).Msg("local lyric file unreadable")
			}
		}
	}

	// 2. 缓存
	if content, ok := r.cache.Load(ctx, q.Artist, q.Title); ok {
		rlog.Info().Msg("resolved from cache")
		return r.result(content, SourceCache, true), true
	}

	// 3. 离线时不再逐个等待各来源超时
	if !r.netcheck.Available() {
		rlog.Warn().Msg("network unavailable, skipping online sources")
		return nil, false
	}

	// 4. 网络来源瀑布流
	for _, p := range r.providers {
		if ctx.Err() != nil {
			rlog.Debug().Msg("resolution cancelled")
			return nil, false
		}

		content, err := p.Search(ctx, q)
		if err != nil {
			// 单个来源的任何失败都不致命，继续下一个
			rlog.Debug().Err(err).Str("provider", p.Name()).Msg("provider miss")
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		rlog.Info().Str("provider", p.Name()).Msg("lyrics resolved")

		// 切歌后迟到的结果不再产生副作用
		if ctx.Err() != nil {
			return nil, false
		}

		if !r.cache.Save(ctx, q.Artist, q.Title, content) {
			rlog.Warn().Msg("failed to cache lyrics")
		}
		if q.FilePath != "" {
			if sidecar.Write(q.FilePath, content) {
				rlog.Debug().Msg("lyrics written beside audio file")
			}
		}

		return r.result(content, r.sourceOf(p), false), true
	}

	rlog.Info().Msg("all sources exhausted, no lyrics found")
	return nil, false
}

// ClearCache 清空歌词缓存
func (r *Resolver) ClearCache(ctx context.Context) bool {
	return r.cache.Clear(ctx)
}

// CacheSize 缓存占用的字节数
func (r *Resolver) CacheSize() int64 {
	return r.cache.Size()
}

func (r *Resolver) result(content string, source Source, cached bool) *Result {
	return &Result{
		Content: content,
		Lines:   lyrics.ParseLRC(content),
		Source:  source,
		Cached:  cached,
	}
}

func (r *Resolver) sourceOf(p provider.Provider) Source {
	if s, ok := r.sources[p.Name()]; ok {
		return s
	}
	return Source(strings.ToLower(p.Name()))
}
