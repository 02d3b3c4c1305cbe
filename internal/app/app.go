// Package app 后台守护进程：轮询播放器、在切歌时发起歌词解析、
// 按播放进度把当前行广播给显示端。
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/internal/config"
	"github.com/lgsd123456/MiAudioPlay/internal/ipc"
	"github.com/lgsd123456/MiAudioPlay/internal/lyrics"
	"github.com/lgsd123456/MiAudioPlay/internal/netcheck"
	"github.com/lgsd123456/MiAudioPlay/internal/player"
	"github.com/lgsd123456/MiAudioPlay/internal/resolver"
	"github.com/lgsd123456/MiAudioPlay/pkg/ai"
	"github.com/lgsd123456/MiAudioPlay/pkg/ai/gemini"
	"github.com/lgsd123456/MiAudioPlay/pkg/ai/openai"
	"github.com/lgsd123456/MiAudioPlay/pkg/lyricscache"
	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
	"github.com/lgsd123456/MiAudioPlay/pkg/redis"
)

// 同步调度器的采样间隔
const syncInterval = 100 * time.Millisecond

// 一次完整解析的时间上限，覆盖最慢的来源组合
const resolveTimeout = 60 * time.Second

type App struct {
	cfg       *config.Config
	ipcServer *ipc.Server
	player    *player.Client
	resolver  *resolver.Resolver
	aiClient  ai.Client

	// 切歌与解析取消控制
	mutex         sync.Mutex
	currentKey    string
	generation    uint64
	resolveCancel context.CancelFunc

	// 歌词同步调度器控制
	schedulerMutex  sync.Mutex
	schedulerCancel context.CancelFunc
}

// SongInfo AI从媒体标题中提取出的歌曲信息
type SongInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	IsSong bool   `json:"is_song"`
}

func formatQuerySong(title string) string {
	return fmt.Sprintf(`请精确地按照以下JSON格式提取歌曲信息: {"is_song": true, "title": "歌曲标题", "artist": "演唱者"}。  输入是一个媒体标题，如果标题中包含歌曲信息，请返回符合格式的JSON；否则，返回{"is_song": false}。 请注意，"title" 和 "artist" 必须准确，否则将被视为错误，切记不要任何markdown格式，并将繁体中文转换为简体。 媒体标题是：%s`, title)
}

func New(cfg *config.Config) *App {
	// 设置 zerolog 的全局配置
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cache, err := lyricscache.New(cfg.App.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Str("cache_dir", cfg.App.CacheDir).Msg("failed to create lyrics cache")
	}
	log.Info().Str("cache_dir", cfg.App.CacheDir).Msg("lyrics cache directory")

	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using disk cache only")
		} else {
			cache = cache.WithRedis(rdb)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("redis cache tier enabled")
		}
	}

	playerClient, err := player.NewClient(cfg.Player.MPRISService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to session bus")
	}

	providers := resolver.DefaultProviders(resolver.ProviderOptions{
		NetEaseCookie: cfg.Providers.NetEaseCookie,
		QQMusicCookie: cfg.Providers.QQMusicCookie,
		HappiAPIKey:   cfg.Providers.HappiAPIKey,
	})

	return &App{
		cfg:       cfg,
		ipcServer: ipc.NewServer(cfg.App.SocketPath),
		player:    playerClient,
		resolver:  resolver.New(cache, netcheck.NewDialChecker(), providers),
		aiClient:  newAIClient(cfg.AI),
	}
}

// newAIClient 没有配置API key时返回nil，元数据提取静默禁用
func newAIClient(cfg config.AIConfig) ai.Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.ModuleName == "gemini" {
		client, err := gemini.NewGemini(cfg.APIKey, "")
		if err != nil {
			log.Warn().Err(err).Msg("failed to create gemini client, metadata cleanup disabled")
			return nil
		}
		return client
	}
	return openai.NewOpenAi(cfg.APIKey, cfg.ModuleName, cfg.BaseURL)
}

func (a *App) Run() {
	if err := a.ipcServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start ipc server")
	}
	defer a.ipcServer.Close()
	defer a.player.Close()

	ticker := time.NewTicker(a.cfg.App.CheckInterval)
	defer ticker.Stop()

	log.Info().Msg("starting player check loop")
	for {
		a.checkPlayer()
		<-ticker.C
	}
}

// checkPlayer 每个轮询周期调用一次，检测切歌并发起解析
func (a *App) checkPlayer() {
	track, err := a.player.CurrentTrack()
	if err != nil {
		a.mutex.Lock()
		hadTrack := a.currentKey != ""
		a.currentKey = ""
		a.mutex.Unlock()
		if hadTrack {
			a.stopScheduler()
			a.ipcServer.Broadcast("No music playing...")
		}
		return
	}

	a.mutex.Lock()
	key := track.Key()
	if key == a.currentKey {
		a.mutex.Unlock()
		return
	}
	log.Info().Str("title", track.Title).Str("artist", track.Artist).Msg("new track detected")
	a.currentKey = key

	// 上一首的解析作废
	a.generation++
	gen := a.generation
	if a.resolveCancel != nil {
		a.resolveCancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	a.resolveCancel = cancel
	a.mutex.Unlock()

	a.stopScheduler()
	a.ipcServer.Broadcast(fmt.Sprintf("... Searching for lyrics for %s ...", track.Title))

	go a.resolveTrack(ctx, gen, track)
}

// resolveTrack 在独立goroutine里解析歌词，迟到的结果直接丢弃
func (a *App) resolveTrack(ctx context.Context, gen uint64, track *player.Track) {
	q, ok := a.queryForTrack(track)
	if !ok {
		if a.isCurrentGeneration(gen) {
			a.ipcServer.Broadcast(fmt.Sprintf("'%s' is not a song.", track.Title))
		}
		return
	}

	result, found := a.resolver.Resolve(ctx, q)

	if !a.isCurrentGeneration(gen) {
		log.Debug().Str("title", q.Title).Msg("discarding stale resolution result")
		return
	}

	if !found {
		a.ipcServer.Broadcast(fmt.Sprintf("No lyrics found for %s", track.Title))
		return
	}

	log.Info().Str("source", string(result.Source)).Int("lines", len(result.Lines)).Msg("lyrics ready")
	a.startScheduler(result)
}

func (a *App) isCurrentGeneration(gen uint64) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return gen == a.generation
}

// queryForTrack 构造解析请求。播放器没有上报歌手时（常见于浏览器），
// 交给AI从原始标题里提取歌名和歌手。
func (a *App) queryForTrack(track *player.Track) (provider.Query, bool) {
	q := provider.Query{
		Title:      track.Title,
		Artist:     track.Artist,
		Album:      track.Album,
		DurationMs: track.DurationMs,
		FilePath:   track.FilePath,
	}
	if q.Artist != "" || a.aiClient == nil {
		return q, true
	}

	var raw string
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		raw, err = a.aiClient.HandleText(formatQuerySong(track.Title))
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("metadata extraction failed")
		time.Sleep(time.Second)
	}
	if err != nil {
		return q, true
	}

	var info SongInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("failed to parse metadata extraction response")
		return q, true
	}
	if !info.IsSong {
		return q, false
	}

	log.Info().Str("title", info.Title).Str("artist", info.Artist).Msg("metadata extracted from media title")
	q.Title = info.Title
	q.Artist = info.Artist
	return q, true
}

// startScheduler 启动歌词同步调度器，按播放进度广播当前行
func (a *App) startScheduler(result *resolver.Result) {
	a.stopScheduler()

	lines := result.Lines
	if len(lines) == 0 {
		log.Warn().Msg("no timed lines found, broadcasting raw text")
		a.ipcServer.Broadcast(result.Content)
		return
	}

	a.schedulerMutex.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	a.schedulerMutex.Unlock()

	go func() {
		ticker := time.NewTicker(syncInterval)
		defer ticker.Stop()

		// -2保证第一次采样必定广播
		lastIndex := -2

		for {
			select {
			case <-ticker.C:
				pos, err := a.player.PositionMs()
				if err != nil {
					continue
				}

				index := lyrics.IndexAt(lines, pos)
				if index == lastIndex {
					continue
				}
				lastIndex = index

				if index >= 0 && index < len(lines) {
					a.ipcServer.Broadcast(lines[index].Text)
				}

			case <-ctx.Done():
				log.Debug().Msg("lyric scheduler stopped")
				return
			}
		}
	}()
}

func (a *App) stopScheduler() {
	a.schedulerMutex.Lock()
	defer a.schedulerMutex.Unlock()
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
}
