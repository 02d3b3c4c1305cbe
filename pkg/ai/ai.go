// Package ai 定义文本补全客户端的最小接口，
// 用于从播放器上报的杂乱标题里提取歌名和歌手。
package ai

// Client 文本补全客户端
type Client interface {
	Name() string
	HandleText(msg string) (string, error)
}
