package lyrics

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Line 一行歌词及其起始时间（毫秒）
type Line struct {
	TimeMs int64
	Text   string
}

// 时间标签形如 [MM:SS.ff] 或 [MM:SS.fff]
var timeTagRe = regexp.MustCompile(`\[(\d{2}):(\d{2})\.(\d{2,3})\]`)

// ParseLRC 解析LRC格式歌词文本。
// 一行可以带多个时间标签（副歌复用同一句），歌词文本取最后一个标签之后的部分；
// 文本为空的行和无法解析的行直接跳过，结果按时间升序稳定排序。
func ParseLRC(lrc string) []Line {
	var result []Line
	scanner := bufio.NewScanner(strings.NewReader(lrc))
	for scanner.Scan() {
		raw := scanner.Text()
		matches := timeTagRe.FindAllStringSubmatchIndex(raw, -1)
		if len(matches) == 0 {
			continue
		}

		last := matches[len(matches)-1]
		text := strings.TrimSpace(raw[last[1]:])
		if text == "" {
			continue
		}

		for _, m := range matches {
			min, _ := strconv.ParseInt(raw[m[2]:m[3]], 10, 64)
			sec, _ := strconv.ParseInt(raw[m[4]:m[5]], 10, 64)
			frac := raw[m[6]:m[7]]
			ms, _ := strconv.ParseInt(frac, 10, 64)
			if len(frac) == 2 {
				// 两位小数是厘秒
				ms *= 10
			}
			result = append(result, Line{
				TimeMs: min*60*1000 + sec*1000 + ms,
				Text:   text,
			})
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].TimeMs < result[j].TimeMs })
	return result
}

// ConvertPlainToLRC 将纯文本歌词升级为LRC格式。
// 所有行都挂在零时间戳上，同步调度时固定显示第一行，不会崩也不会跳。
func ConvertPlainToLRC(plain string) string {
	var b strings.Builder
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("[00:00.00]")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// FormatLRC 将歌词行序列化为LRC文本，时间精确到厘秒。
func FormatLRC(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		min := l.TimeMs / 60000
		sec := l.TimeMs % 60000 / 1000
		cs := l.TimeMs % 1000 / 10
		fmt.Fprintf(&b, "[%02d:%02d.%02d]%s\n", min, sec, cs, l.Text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// IndexAt 返回播放位置对应的歌词行下标：时间戳不超过position的最后一行。
// 位置在第一句之前时返回0（歌词非空就总有一行可显示），歌词为空返回-1。
func IndexAt(lines []Line, positionMs int64) int {
	if len(lines) == 0 {
		return -1
	}

	// 时间戳已升序，二分查找
	left, right := 0, len(lines)-1
	result := -1
	for left <= right {
		mid := (left + right) / 2
		if lines[mid].TimeMs <= positionMs {
			result = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	if result < 0 {
		return 0
	}
	return result
}
