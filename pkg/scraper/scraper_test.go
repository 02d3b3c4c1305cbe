package scraper

import (
	"strings"
	"testing"
)

const filler = "And all the roads we have to walk are winding, and all the lights that lead us there are blinding"

// TestExtractAZLyrics 版权注释标记之后的div才是正文
func TestExtractAZLyrics(t *testing.T) {
	page := `<html><body>
<div class="lyricsh"><h2>"Song" lyrics</h2></div>
<!-- Usage of azlyrics.com content by any third-party lyrics provider is prohibited -->
Today is gonna be the day<br>
That they&#x27;re gonna throw it back to you<br>
` + filler + `
</div>
</body></html>`

	got := ExtractAZLyrics(page)
	if !strings.Contains(got, "Today is gonna be the day") {
		t.Errorf("missing first line: %q", got)
	}
	if !strings.Contains(got, "they're gonna throw it back") {
		t.Errorf("html entity not unescaped: %q", got)
	}
	if strings.Contains(got, "<br>") || strings.Contains(got, "lyricsh") {
		t.Errorf("markup leaked into lyrics: %q", got)
	}
}

// TestExtractAZLyricsNoMarker 没有标记的页面返回空
func TestExtractAZLyricsNoMarker(t *testing.T) {
	if got := ExtractAZLyrics("<html><body>404 not found</body></html>"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestExtractLyricsCom(t *testing.T) {
	page := `<pre id="lyric-body-text" class="lyric-body">Is this the real life
Is it just fantasy
` + filler + `</pre>`

	got := ExtractLyricsCom(page)
	if !strings.Contains(got, "Is this the real life") {
		t.Errorf("missing lyrics: %q", got)
	}
}

func TestExtractSongLyrics(t *testing.T) {
	page := `<p id="songLyricsDiv" class="songLyricsV14">Hello from the other side<br />
I must have called a thousand times<br />
` + filler + `</p>`

	got := ExtractSongLyrics(page)
	if !strings.Contains(got, "Hello from the other side") {
		t.Errorf("missing lyrics: %q", got)
	}
	if strings.Contains(got, "<br") {
		t.Errorf("markup leaked: %q", got)
	}
}

// TestExtractGenius 多个歌词容器块要拼接
func TestExtractGenius(t *testing.T) {
	page := `<div data-lyrics-container="true" class="Lyrics__Container">First verse line one<br>First verse line two</div>
<div>ad block</div>
<div data-lyrics-container="true" class="Lyrics__Container">Second verse line one<br>` + filler + `</div>`

	got := ExtractGenius(page)
	if !strings.Contains(got, "First verse line one") || !strings.Contains(got, "Second verse line one") {
		t.Errorf("missing verse content: %q", got)
	}
	if strings.Contains(got, "ad block") {
		t.Errorf("non-lyrics content leaked: %q", got)
	}
}

func TestExtractMetroLyrics(t *testing.T) {
	page := `<p class="verse">Verse one line one<br>Verse one line two</p>
<p class="verse">Verse two line one<br>` + filler + `</p>`

	got := ExtractMetroLyrics(page)
	if !strings.Contains(got, "Verse one line one") || !strings.Contains(got, "Verse two line one") {
		t.Errorf("missing verses: %q", got)
	}
}

// TestShortContentRejected 太短的提取结果视为无效
func TestShortContentRejected(t *testing.T) {
	page := `<pre id="lyric-body-text">too short</pre>`
	if got := ExtractLyricsCom(page); got != "" {
		t.Errorf("expected short content to be rejected, got %q", got)
	}
}
