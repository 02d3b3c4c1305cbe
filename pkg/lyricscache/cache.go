package lyricscache

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/pkg/redis"
)

var logger = log.With().Str("component", "lyrics-cache").Logger()

// 缓存键只保留字母数字、汉字、空白和连字符，其余字符一律剥掉。
// 标点、变音符不同但剥完相同的歌名会撞到同一个键，这是已知的取舍。
var keyStripRe = regexp.MustCompile(`[^a-zA-Z0-9\x{4e00}-\x{9fa5}\s-]`)

const redisKeyPrefix = "lyrics:"

// Store 歌词缓存：每个(歌手,歌名)对应缓存目录下的一个LRC文件。
// 配置了Redis时先查Redis，写入时两边都写；Redis故障只降级到磁盘，不报错。
type Store struct {
	dir string
	rdb *redis.Client
}

// New 创建文件歌词缓存
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// WithRedis 在文件缓存前面加一层Redis
func (s *Store) WithRedis(rdb *redis.Client) *Store {
	s.rdb = rdb
	return s
}

// Key 由歌手和歌名生成缓存键
func Key(artist, title string) string {
	a := strings.TrimSpace(keyStripRe.ReplaceAllString(artist, ""))
	t := strings.TrimSpace(keyStripRe.ReplaceAllString(title, ""))
	return a + " - " + t
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.dir, key+".lrc")
}

// Save 保存歌词到缓存，失败只记日志并返回false
func (s *Store) Save(ctx context.Context, artist, title, content string) bool {
	key := Key(artist, title)

	if err := os.WriteFile(s.filePath(key), []byte(content), 0644); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to write cache file")
		return false
	}
	logger.Debug().Str("key", key).Msg("Lyrics cached")

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, redisKeyPrefix+key, content); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to write lyrics to redis")
		}
	}
	return true
}

// Load 从缓存加载歌词
func (s *Store) Load(ctx context.Context, artist, title string) (string, bool) {
	key := Key(artist, title)

	if s.rdb != nil {
		content, err := s.rdb.Get(ctx, redisKeyPrefix+key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Redis lookup failed, falling back to disk")
		} else if content != "" {
			logger.Debug().Str("key", key).Msg("Cache hit (redis)")
			return content, true
		}
	}

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		return "", false
	}
	logger.Debug().Str("key", key).Msg("Cache hit (disk)")

	if s.rdb != nil {
		// 回填Redis，下次不用再读盘
		if err := s.rdb.Set(ctx, redisKeyPrefix+key, string(data)); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to backfill redis")
		}
	}
	return string(data), true
}

// Clear 清空缓存目录下的所有歌词文件
func (s *Store) Clear(ctx context.Context) bool {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list cache directory")
		return false
	}

	ok := true
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			logger.Error().Err(err).Str("file", entry.Name()).Msg("Failed to remove cache file")
			ok = false
			continue
		}
		if s.rdb != nil {
			key := strings.TrimSuffix(entry.Name(), ".lrc")
			if _, err := s.rdb.Del(ctx, redisKeyPrefix+key); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("Failed to remove redis entry")
			}
		}
	}
	logger.Info().Msg("Lyrics cache cleared")
	return ok
}

// Size 缓存占用的字节数，枚举失败返回0
func (s *Store) Size() int64 {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}

	var total int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total
}
