package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lgsd123456/MiAudioPlay/pkg/lyricscache"
	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
)

// fakeProvider 模拟歌词来源
type fakeProvider struct {
	name   string
	lyrics string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, q provider.Query) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.lyrics, nil
}

// fakeChecker 模拟网络可达性
type fakeChecker struct{ online bool }

func (f *fakeChecker) Available() bool { return f.online }

func newTestResolver(t *testing.T, online bool, providers ...provider.Provider) *Resolver {
	t.Helper()
	cache, err := lyricscache.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return New(cache, &fakeChecker{online: online}, providers)
}

// TestResolveLocalFile 音频旁的.lrc命中后不访问任何网络来源
func TestResolveLocalFile(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "song.mp3")
	os.WriteFile(audioPath, []byte("audio"), 0644)
	os.WriteFile(filepath.Join(dir, "song.lrc"), []byte("[00:01.00]local line"), 0644)

	p := &fakeProvider{name: "LRCLib", lyrics: "[00:01.00]network line"}
	r := newTestResolver(t, true, p)

	result, ok := r.Resolve(context.Background(), provider.Query{Title: "Song", Artist: "Artist", FilePath: audioPath})
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if result.Source != SourceLocalFile {
		t.Errorf("expected local file source, got %s", result.Source)
	}
	if p.calls != 0 {
		t.Errorf("network provider should not be consulted, got %d calls", p.calls)
	}
}

// TestResolveCacheHit 缓存命中时短路且Cached为true
func TestResolveCacheHit(t *testing.T) {
	cache, err := lyricscache.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	cache.Save(context.Background(), "Artist", "Song", "[00:05.00]cached line")

	p := &fakeProvider{name: "LRCLib", lyrics: "[00:05.00]network line"}
	r := New(cache, &fakeChecker{online: true}, []provider.Provider{p})

	result, ok := r.Resolve(context.Background(), provider.Query{Title: "Song", Artist: "Artist"})
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if result.Source != SourceCache || !result.Cached {
		t.Errorf("expected cache hit, got source=%s cached=%v", result.Source, result.Cached)
	}
	if p.calls != 0 {
		t.Errorf("network provider should not be consulted on cache hit")
	}
}

// TestResolveOffline 离线时不触发任何来源
func TestResolveOffline(t *testing.T) {
	p := &fakeProvider{name: "LRCLib", lyrics: "[00:01.00]line"}
	r := newTestResolver(t, false, p)

	if _, ok := r.Resolve(context.Background(), provider.Query{Title: "Song", Artist: "Artist"}); ok {
		t.Error("expected resolution to fail while offline")
	}
	if p.calls != 0 {
		t.Errorf("providers should not be consulted while offline")
	}
}

// TestResolveWaterfall 来源失败时隔离错误继续尝试下一个
func TestResolveWaterfall(t *testing.T) {
	miss := &fakeProvider{name: "LRCLib", err: provider.ErrNotFound}
	hit := &fakeProvider{name: "NetEase Cloud Music", lyrics: "[00:10.00]found it"}
	after := &fakeProvider{name: "Lyrist", lyrics: "[00:10.00]should not reach"}

	r := newTestResolver(t, true, miss, hit, after)

	result, ok := r.Resolve(context.Background(), provider.Query{Title: "Song", Artist: "Artist"})
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if result.Source != SourceNetEase {
		t.Errorf("expected netease source, got %s", result.Source)
	}
	if after.calls != 0 {
		t.Errorf("first success must short-circuit, later provider was called")
	}
}

// TestResolveCachesNetworkHit 网络命中后写入缓存，再次解析走缓存
func TestResolveCachesNetworkHit(t *testing.T) {
	p := &fakeProvider{name: "LRCLib", lyrics: "[00:00.00]line one\n[00:00.00]line two"}
	r := newTestResolver(t, true, p)
	q := provider.Query{Title: "Love Story", Artist: "Taylor Swift"}

	first, ok := r.Resolve(context.Background(), q)
	if !ok {
		t.Fatal("expected first resolution to succeed")
	}
	if first.Cached {
		t.Error("network hit must not report cached")
	}
	if len(first.Lines) != 2 || first.Lines[0].Text != "line one" || first.Lines[1].Text != "line two" {
		t.Errorf("unexpected parsed lines: %+v", first.Lines)
	}

	second, ok := r.Resolve(context.Background(), q)
	if !ok {
		t.Fatal("expected second resolution to succeed")
	}
	if second.Source != SourceCache {
		t.Errorf("expected cache hit on second resolve, got %s", second.Source)
	}
	if p.calls != 1 {
		t.Errorf("provider should be consulted once, got %d", p.calls)
	}
}

// TestResolveCancelled 取消的上下文不产生结果也不写缓存
func TestResolveCancelled(t *testing.T) {
	p := &fakeProvider{name: "LRCLib", lyrics: "[00:01.00]line"}
	r := newTestResolver(t, true, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := r.Resolve(ctx, provider.Query{Title: "Song", Artist: "Artist"}); ok {
		t.Error("expected cancelled resolution to fail")
	}
}

// TestResolveExhausted 所有来源落空时返回ok=false
func TestResolveExhausted(t *testing.T) {
	p1 := &fakeProvider{name: "LRCLib", err: provider.ErrNotFound}
	p2 := &fakeProvider{name: "Lyrist", lyrics: "   "}
	r := newTestResolver(t, true, p1, p2)

	if _, ok := r.Resolve(context.Background(), provider.Query{Title: "Song", Artist: "Artist"}); ok {
		t.Error("expected resolution to fail when all sources miss")
	}
}
