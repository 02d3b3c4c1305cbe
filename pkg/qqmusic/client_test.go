package qqmusic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
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

// TestSearch 测试两步流程：搜索songmid再拉取base64歌词
func TestSearch(t *testing.T) {
	lrc := "[00:10.00]晴天"
	encoded := base64.StdEncoding.EncodeToString([]byte(lrc))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://y.qq.com" {
			t.Errorf("missing referer header")
		}
		switch {
		case r.URL.Path == "/soso/fcgi-bin/client_search_cp":
			w.Write([]byte(`{"code":0,"data":{"song":{"list":[{"mid":"0039MnYb0qxYhV","name":"晴天","singer":[{"name":"周杰伦"}]}]}}}`))
		case r.URL.Path == "/lyric/fcgi-bin/fcg_query_lyric_new.fcg":
			if r.URL.Query().Get("songmid") != "0039MnYb0qxYhV" {
				t.Errorf("unexpected songmid: %q", r.URL.Query().Get("songmid"))
			}
			fmt.Fprintf(w, `{"retcode":0,"lyric":%q,"trans":""}`, encoded)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Search(context.Background(), provider.Query{Title: "晴天", Artist: "周杰伦"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got != lrc {
		t.Errorf("unexpected lyrics: %q", got)
	}
}

// TestSearchNoResults 搜索无结果时返回ErrNotFound
func TestSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":{"song":{"list":[]}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), provider.Query{Title: "x", Artist: "y"})
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestSearchInvalidBase64 歌词字段不是合法base64时按未找到处理
func TestSearchInvalidBase64(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/soso/fcgi-bin/client_search_cp" {
			w.Write([]byte(`{"code":0,"data":{"song":{"list":[{"mid":"abc","name":"x","singer":[]}]}}}`))
			return
		}
		w.Write([]byte(`{"retcode":0,"lyric":"!!!not-base64!!!","trans":""}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), provider.Query{Title: "x", Artist: "y"})
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
