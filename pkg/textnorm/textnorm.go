// Package textnorm 对搜索查询做去重音、去标点与分词处理。
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = regexp.MustCompile(`[,.":'()\[\]^;!¡¿?]`)

// StripDiacritics 去掉组合附加符号，例如 "Ñandú" -> "Nandu"。
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize 返回规范化后的查询字符串。
func Normalize(query string) string {
	q := strings.ToLower(StripDiacritics(query))
	return punctuation.ReplaceAllString(q, "")
}

// Words 将查询规范化并按空白拆分，空查询返回 nil。
func Words(query string) []string {
	words := strings.Fields(Normalize(query))
	if len(words) == 0 {
		return nil
	}
	return words
}
