package provider

import (
	"context"
	"errors"
)

// ErrNotFound 表示提供商没有找到这首歌的歌词（区别于网络或解析故障）
var ErrNotFound = errors.New("lyrics not found")

// Query 一次歌词检索的歌曲信息
type Query struct {
	Title      string
	Artist     string
	Album      string
	DurationMs int64
	// FilePath 本地音频文件路径，提供商用不到，编排器用它定位sidecar文件
	FilePath string
}

// DurationSeconds 歌曲时长（秒），未知时返回0
func (q Query) DurationSeconds() int {
	return int(q.DurationMs / 1000)
}

// Provider 歌词提供商通用接口。
// Search 返回LRC格式歌词文本；任何失败都通过error返回，
// 编排器把所有error一视同仁地当作"这家没有"，继续下一家。
type Provider interface {
	// Name 提供商名称
	Name() string

	// Search 按歌曲信息检索歌词
	Search(ctx context.Context, q Query) (string, error)
}
