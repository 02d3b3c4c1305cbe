package resolver

import (
	"github.com/lgsd123456/MiAudioPlay/pkg/chartlyrics"
	"github.com/lgsd123456/MiAudioPlay/pkg/happi"
	"github.com/lgsd123456/MiAudioPlay/pkg/lrclib"
	"github.com/lgsd123456/MiAudioPlay/pkg/lyricsovh"
	"github.com/lgsd123456/MiAudioPlay/pkg/lyrist"
	"github.com/lgsd123456/MiAudioPlay/pkg/netease"
	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
	"github.com/lgsd123456/MiAudioPlay/pkg/qqmusic"
	"github.com/lgsd123456/MiAudioPlay/pkg/scraper"
)

// ProviderOptions 各来源的凭据，全部可为空
type ProviderOptions struct {
	NetEaseCookie string
	QQMusicCookie string
	HappiAPIKey   string
}

// DefaultProviders 按优先级构建网络歌词来源。
// 带时间轴的来源在前，纯文本来源垫后，爬虫和Lyrist兜底。
func DefaultProviders(opts ProviderOptions) []provider.Provider {
	return []provider.Provider{
		lrclib.NewClient(),
		qqmusic.NewClient(opts.QQMusicCookie),
		netease.NewClient(opts.NetEaseCookie),
		lyricsovh.NewClient(),
		chartlyrics.NewClient(),
		happi.NewClient(opts.HappiAPIKey),
		scraper.New(),
		lyrist.NewClient(),
	}
}
