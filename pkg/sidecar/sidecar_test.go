package sidecar

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// TestFind 测试同目录LRC文件的探测顺序
func TestFind(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "Song.mp3")
	writeFile(t, audio, "audio")

	if _, ok := Find(audio); ok {
		t.Fatal("expected no sidecar file yet")
	}

	writeFile(t, filepath.Join(dir, "song.lrc"), "[00:00.00]lower")
	path, ok := Find(audio)
	if !ok || filepath.Base(path) != "song.lrc" {
		t.Errorf("expected lowercase fallback match, got %q ok=%v", path, ok)
	}

	// 精确匹配优先于小写回退
	writeFile(t, filepath.Join(dir, "Song.lrc"), "[00:00.00]exact")
	path, ok = Find(audio)
	if !ok || filepath.Base(path) != "Song.lrc" {
		t.Errorf("expected exact match, got %q ok=%v", path, ok)
	}
}

// TestWrite 测试正常写入
func TestWrite(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "track.flac")
	writeFile(t, audio, "audio")

	if !Write(audio, "[00:01.00]hello") {
		t.Fatal("expected write to succeed")
	}

	content, err := os.ReadFile(filepath.Join(dir, "track.lrc"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "[00:01.00]hello" {
		t.Errorf("unexpected content: %q", content)
	}
}

// TestWriteNoOverwrite 已有LRC文件时必须返回false且内容不变
func TestWriteNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "track.mp3")
	lrc := filepath.Join(dir, "track.lrc")
	writeFile(t, audio, "audio")
	writeFile(t, lrc, "original content")

	if Write(audio, "new content") {
		t.Fatal("expected write to be refused")
	}

	content, err := os.ReadFile(lrc)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "original content" {
		t.Errorf("existing file was modified: %q", content)
	}
}

// TestWriteMissingAudio 音频文件不存在时不写入
func TestWriteMissingAudio(t *testing.T) {
	dir := t.TempDir()
	if Write(filepath.Join(dir, "ghost.mp3"), "xx") {
		t.Fatal("expected write to fail for missing audio file")
	}
	if _, err := os.Stat(filepath.Join(dir, "ghost.lrc")); err == nil {
		t.Fatal("lrc file should not have been created")
	}
}
