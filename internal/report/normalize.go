package report

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	boilerplatePrefix = regexp.MustCompile(`^\s*ChatGPT\s*:\s*`)
	horizontalSpace   = regexp.MustCompile(`[ \t\f\v]+`)
	spaceAroundBreak  = regexp.MustCompile(` ?\n ?`)
	extraBreaks       = regexp.MustCompile(`\n{3,}`)
)

var spaceReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u00a0", " ",
	"\u202f", " ",
	"\u2007", " ",
	"\u2009", " ",
)

// Normalize 清理生成服务的原始输出
// 去掉开头的 "ChatGPT :" 前缀，不间断空格与连续空白压成单个空格，保留换行
func Normalize(raw string) string {
	text := spaceReplacer.Replace(raw)
	text = boilerplatePrefix.ReplaceAllString(text, "")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spaceAroundBreak.ReplaceAllString(text, "\n")
	text = extraBreaks.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var apostrophes = map[rune]rune{
	'\u2019': '\'',
	'\u2018': '\'',
	'\u02bc': '\'',
	'\u00b4': '\'',
	'`':      '\'',
}

// foldRune 去掉重音、统一撇号并转小写
func foldRune(r rune, dst []rune) []rune {
	if a, ok := apostrophes[r]; ok {
		return append(dst, a)
	}
	for _, d := range norm.NFD.String(string(r)) {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		dst = append(dst, unicode.ToLower(d))
	}
	return dst
}

// fold 生成大小写、重音、撇号不敏感的匹配键
func fold(s string) string {
	var b strings.Builder
	buf := make([]rune, 0, 4)
	for _, r := range s {
		buf = foldRune(r, buf[:0])
		for _, f := range buf {
			b.WriteRune(f)
		}
	}
	return b.String()
}

// foldedText 折叠后的文本，offsets[i] 是折叠文本第 i 个字节对应的原文字节位置
type foldedText struct {
	text    string
	offsets []int
}

func foldWithOffsets(s string) foldedText {
	var b strings.Builder
	offsets := make([]int, 0, len(s)+1)
	buf := make([]rune, 0, 4)
	var enc [4]byte
	for i, r := range s {
		buf = foldRune(r, buf[:0])
		for _, f := range buf {
			n := utf8.EncodeRune(enc[:], f)
			b.Write(enc[:n])
			for k := 0; k < n; k++ {
				offsets = append(offsets, i)
			}
		}
	}
	offsets = append(offsets, len(s))
	return foldedText{text: b.String(), offsets: offsets}
}
