// engine/keywords.go
package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 分词时丢弃的虚词，含中英文
var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "有": {}, "和": {}, "与": {},
	"或": {}, "但": {}, "然后": {}, "为什么": {}, "什么": {}, "怎么": {},
	"哪里": {}, "谁": {}, "the": {}, "a": {}, "an": {}, "is": {}, "are": {},
	"was": {}, "did": {}, "does": {}, "and": {}, "or": {}, "but": {},
}

// isSeparator 判断分词边界：空白或中英文标点
func isSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '，', '。', '！', '？', '；', '：', '“', '”', '‘', '’', '（', '）', '【', '】', '、',
		',', '.', '!', '?', ';', ':', '(', ')', '[', ']', '"', '\'':
		return true
	}
	return false
}

// Tokenize 把自由文本切成去重后的关键词集合。
// 大小写折叠，按标点和空白切分，丢弃单字和虚词。
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), isSeparator)

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, w := range fields {
		if utf8.RuneCountInString(w) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}

// tokenSet 转成集合便于求交并
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// 概念标签词表：标签 -> 触发子串。
// 文本是否"涉及"某个概念用子串匹配判断，中文无需分词即可命中。
var conceptTable = map[string][]string{
	"death":       {"死", "自杀", "身亡", "丧命", "尸"},
	"restaurant":  {"餐厅", "酒吧", "点了", "吃饭"},
	"water":       {"水", "喝"},
	"elevator":    {"电梯", "楼梯", "楼"},
	"gun":         {"枪"},
	"desert":      {"沙漠", "迷路"},
	"corpse":      {"尸体", "遗体"},
	"couple":      {"夫妇", "丈夫", "妻子", "夫妻"},
	"fish":        {"鱼", "河豚"},
	"steak":       {"牛排"},
	"plane":       {"飞机", "降落伞"},
	"match":       {"火柴"},
	"hiccup":      {"打嗝", "止嗝"},
	"dwarf":       {"侏儒", "个子"},
	"cannibalism": {"人肉", "吃人", "同伴", "海龟汤"},
	"sacrifice":   {"牺牲", "血液", "救"},
	"poison":      {"毒", "中毒"},
	"medical":     {"病", "医", "惊吓"},
}

// mentionedConcepts 返回文本涉及的概念标签
func mentionedConcepts(text string) []string {
	var tags []string
	for tag, triggers := range conceptTable {
		for _, trigger := range triggers {
			if strings.Contains(text, trigger) {
				tags = append(tags, tag)
				break
			}
		}
	}
	return tags
}

// hasConcept 判断文本是否体现某个概念
func hasConcept(text, tag string) bool {
	for _, trigger := range conceptTable[tag] {
		if strings.Contains(text, trigger) {
			return true
		}
	}
	return false
}
