package chartlyrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lgsd123456/MiAudioPlay/pkg/provider"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 2 * time.Second},
		baseURL:    serverURL,
	}
}

// TestSearch 测试XML响应解析和LRC转换
func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/SearchLyricDirect" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("artist") != "Queen" || r.URL.Query().Get("song") != "Bohemian Rhapsody" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<GetLyricResult xmlns="http://api.chartlyrics.com/">
  <LyricSong>Bohemian Rhapsody</LyricSong>
  <LyricArtist>Queen</LyricArtist>
  <Lyric>Is this the real life
Is this just fantasy</Lyric>
</GetLyricResult>`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Search(context.Background(), provider.Query{Title: "Bohemian Rhapsody", Artist: "Queen"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.HasPrefix(got, "[00:00.00]Is this the real life") {
		t.Errorf("expected zero-timestamp LRC, got %q", got)
	}
}

// TestSearchEmptyLyric 空Lyric元素返回ErrNotFound
func TestSearchEmptyLyric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><GetLyricResult><Lyric></Lyric></GetLyricResult>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), provider.Query{Title: "x", Artist: "y"})
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestSearchBrokenXML 残缺的XML按未找到处理而不是报错
func TestSearchBrokenXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>error page`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), provider.Query{Title: "x", Artist: "y"})
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
