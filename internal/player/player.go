// Package player 通过MPRIS读取当前播放器的曲目元数据和播放进度。
package player

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "player").Logger()

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisPrefix      = "org.mpris.MediaPlayer2."
)

// ErrNoPlayer 总线上没有任何MPRIS播放器
var ErrNoPlayer = errors.New("no mpris player found")

// Track 当前曲目的元数据
type Track struct {
	Title      string
	Artist     string
	Album      string
	DurationMs int64
	// 本地文件路径，流媒体曲目为空
	FilePath string
}

// Key 曲目标识，用于切歌检测
func (t *Track) Key() string {
	return t.Artist + "\x00" + t.Title + "\x00" + t.Album
}

// Client MPRIS客户端
type Client struct {
	conn    *dbus.Conn
	service string
}

// NewClient 连接会话总线。service为空时自动发现第一个MPRIS播放器。
func NewClient(service string) (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, service: service}, nil
}

// CurrentTrack 读取当前曲目。没有播放器或元数据不完整时返回错误。
func (c *Client) CurrentTrack() (*Track, error) {
	service, err := c.resolveService()
	if err != nil {
		return nil, err
	}

	obj := c.conn.Object(service, mprisPath)
	prop, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}

	track := &Track{
		Title:      metaString(metadata, "xesam:title"),
		Artist:     metaArtist(metadata),
		Album:      metaString(metadata, "xesam:album"),
		DurationMs: metaLengthMs(metadata),
		FilePath:   metaFilePath(metadata),
	}
	if track.Title == "" {
		return nil, errors.New("player reports no track title")
	}
	return track, nil
}

// PositionMs 当前播放进度，毫秒
func (c *Client) PositionMs() (int64, error) {
	service, err := c.resolveService()
	if err != nil {
		return 0, err
	}

	obj := c.conn.Object(service, mprisPath)
	prop, err := obj.GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position: %w", err)
	}

	micros, ok := prop.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", prop.Value())
	}
	if micros < 0 {
		return 0, nil
	}
	return micros / 1000, nil
}

// Close 断开总线连接
func (c *Client) Close() error {
	return c.conn.Close()
}

// resolveService 返回要监听的播放器服务名，未配置时取总线上第一个
func (c *Client) resolveService() (string, error) {
	if c.service != "" {
		return c.service, nil
	}

	var names []string
	err := c.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return "", fmt.Errorf("failed to list bus names: %w", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			logger.Debug().Str("service", name).Msg("discovered mpris player")
			return name, nil
		}
	}
	return "", ErrNoPlayer
}

func metaString(metadata map[string]dbus.Variant, key string) string {
	variant, ok := metadata[key]
	if !ok {
		return ""
	}
	if s, ok := variant.Value().(string); ok {
		return s
	}
	return ""
}

// metaArtist xesam:artist通常是字符串数组，取第一个
func metaArtist(metadata map[string]dbus.Variant) string {
	variant, ok := metadata["xesam:artist"]
	if !ok {
		return ""
	}
	switch v := variant.Value().(type) {
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case string:
		return v
	}
	return ""
}

// metaLengthMs mpris:length单位是微秒
func metaLengthMs(metadata map[string]dbus.Variant) int64 {
	variant, ok := metadata["mpris:length"]
	if !ok {
		return 0
	}
	switch v := variant.Value().(type) {
	case int64:
		if v > 0 {
			return v / 1000
		}
	case uint64:
		return int64(v / 1000)
	}
	return 0
}

// metaFilePath 本地曲目的xesam:url是file://形式，转成文件系统路径
func metaFilePath(metadata map[string]dbus.Variant) string {
	raw := metaString(metadata, "xesam:url")
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return u.Path
}
