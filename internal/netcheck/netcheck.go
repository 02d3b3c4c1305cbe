// Package netcheck 在触发网络歌词来源之前做一次快速的连通性探测，
// 离线时让整条瀑布流直接短路。
package netcheck

import (
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "netcheck").Logger()

// Checker 网络可达性检查
type Checker interface {
	Available() bool
}

// 公共DNS的接入点，任意一个可连通即认为在线
var defaultEndpoints = []string{
	"1.1.1.1:443",
	"223.5.5.5:443",
	"8.8.8.8:53",
}

// DialChecker 通过TCP拨号探测网络可达性
type DialChecker struct {
	endpoints []string
	timeout   time.Duration
}

var _ Checker = (*DialChecker)(nil)

// NewDialChecker 创建默认的拨号探测器
func NewDialChecker() *DialChecker {
	return &DialChecker{
		endpoints: defaultEndpoints,
		timeout:   3 * time.Second,
	}
}

// Available 任意一个端点可连通即返回true
func (c *DialChecker) Available() bool {
	for _, endpoint := range c.endpoints {
		conn, err := net.DialTimeout("tcp", endpoint, c.timeout)
		if err != nil {
			logger.Debug().Err(err).Str("endpoint", endpoint).Msg("endpoint unreachable")
			continue
		}
		conn.Close()
		return true
	}
	logger.Warn().Msg("no network connectivity detected")
	return false
}
