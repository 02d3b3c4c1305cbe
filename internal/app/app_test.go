package app

import (
	"errors"
	"testing"

	"github.com/lgsd123456/MiAudioPlay/internal/player"
)

// fakeAI 模拟文本补全客户端
type fakeAI struct {
	response string
	err      error
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) HandleText(msg string) (string, error) {
	return f.response, f.err
}

// TestQueryForTrackStructuredMetadata 播放器有完整元数据时不调用AI
func TestQueryForTrackStructuredMetadata(t *testing.T) {
	a := &App{aiClient: &fakeAI{err: errors.New("should not be called")}}
	track := &player.Track{Title: "Love Story", Artist: "Taylor Swift", DurationMs: 235_000}

	q, ok := a.queryForTrack(track)
	if !ok {
		t.Fatal("expected query to be built")
	}
	if q.Title != "Love Story" || q.Artist != "Taylor Swift" || q.DurationMs != 235_000 {
		t.Errorf("unexpected query: %+v", q)
	}
}

// TestQueryForTrackAIExtraction 没有歌手信息时用AI从标题提取
func TestQueryForTrackAIExtraction(t *testing.T) {
	a := &App{aiClient: &fakeAI{response: `{"is_song": true, "title": "晴天", "artist": "周杰伦"}`}}
	track := &player.Track{Title: "周杰伦 - 晴天 (官方MV)"}

	q, ok := a.queryForTrack(track)
	if !ok {
		t.Fatal("expected query to be built")
	}
	if q.Title != "晴天" || q.Artist != "周杰伦" {
		t.Errorf("unexpected extracted query: %+v", q)
	}
}

// TestQueryForTrackNotASong AI判定不是歌曲时放弃解析
func TestQueryForTrackNotASong(t *testing.T) {
	a := &App{aiClient: &fakeAI{response: `{"is_song": false}`}}
	track := &player.Track{Title: "Some Podcast Episode 42"}

	if _, ok := a.queryForTrack(track); ok {
		t.Error("expected non-song to be rejected")
	}
}

// TestQueryForTrackBadAIResponse AI返回无法解析的内容时回退到原始标题
func TestQueryForTrackBadAIResponse(t *testing.T) {
	a := &App{aiClient: &fakeAI{response: "sorry, I cannot help with that"}}
	track := &player.Track{Title: "Raw Media Title"}

	q, ok := a.queryForTrack(track)
	if !ok {
		t.Fatal("expected fallback query")
	}
	if q.Title != "Raw Media Title" {
		t.Errorf("unexpected fallback query: %+v", q)
	}
}

// TestQueryForTrackNoAIClient 未配置AI时直接使用原始元数据
func TestQueryForTrackNoAIClient(t *testing.T) {
	a := &App{}
	track := &player.Track{Title: "Raw Title"}

	q, ok := a.queryForTrack(track)
	if !ok || q.Title != "Raw Title" {
		t.Errorf("unexpected query without ai client: %+v ok=%v", q, ok)
	}
}

// TestGenerationSupersedes 切歌后旧的解析代数作废
func TestGenerationSupersedes(t *testing.T) {
	a := &App{}

	a.mutex.Lock()
	a.generation++
	gen := a.generation
	a.mutex.Unlock()

	if !a.isCurrentGeneration(gen) {
		t.Error("fresh generation should be current")
	}

	a.mutex.Lock()
	a.generation++
	a.mutex.Unlock()

	if a.isCurrentGeneration(gen) {
		t.Error("superseded generation should not be current")
	}
}
