package sidecar

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lgsd123456/MiAudioPlay/pkg/fileutil"
)

var logger = log.With().Str("component", "sidecar").Logger()

// Find 在音频文件所在目录中查找同名的LRC文件。
// 依次尝试 {base}.lrc、{base}.LRC、{小写base}.lrc，返回第一个可读的文件路径。
func Find(audioPath string) (string, bool) {
	base := baseName(audioPath)
	dir := filepath.Dir(audioPath)

	candidates := []string{
		base + ".lrc",
		base + ".LRC",
		strings.ToLower(base) + ".lrc",
	}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		f.Close()
		return path, true
	}
	return "", false
}

// Write 将歌词写到音频文件旁边的 {base}.lrc，绝不覆盖已有文件。
// 任何前置条件不满足或写入失败都只返回false，不影响调用方的歌词结果。
func Write(audioPath, content string) bool {
	info, err := os.Stat(audioPath)
	if err != nil || info.IsDir() {
		logger.Debug().Str("audio_path", audioPath).Msg("Audio file does not exist, skipping sidecar write")
		return false
	}

	dir := filepath.Dir(audioPath)
	dirInfo, err := os.Stat(dir)
	if err != nil || !dirInfo.IsDir() {
		logger.Debug().Str("dir", dir).Msg("Parent directory does not exist, skipping sidecar write")
		return false
	}

	lrcPath := filepath.Join(dir, baseName(audioPath)+".lrc")
	if _, err := os.Stat(lrcPath); err == nil {
		// 用户已有的歌词文件不能动
		logger.Debug().Str("lrc_path", lrcPath).Msg("LRC file already exists, skipping")
		return false
	}

	if err := fileutil.WriteFileExclusive(lrcPath, []byte(content), 0644); err != nil {
		logger.Warn().Err(err).Str("lrc_path", lrcPath).Msg("Failed to write sidecar LRC file")
		return false
	}

	logger.Info().Str("lrc_path", lrcPath).Msg("Sidecar LRC file saved")
	return true
}

func baseName(audioPath string) string {
	name := filepath.Base(audioPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
