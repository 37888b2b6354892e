// engine/evaluator.go
package engine

import (
	"strings"

	"github.com/wfunc/turtlesoup/models"
)

// 猜测评分权重与分档边界。分档自高到低判定，互不重叠。
const (
	weightGuessKeyword = 0.4
	weightGuessText    = 0.4
	weightGuessConcept = 0.2

	bandCorrect   = 0.75
	bandClose     = 0.5
	bandDirection = 0.3
)

const (
	msgCorrect   = "恭喜！你猜对了！"
	msgClose     = "很接近了，但还不够准确。"
	msgDirection = "方向对了，但细节还不对。"
	msgWrong     = "猜错了，继续努力！"

	// 自定义题目在题库里没有汤底时的兜底揭示
	genericReveal = "这是一个关于逻辑推理的故事，需要仔细分析每个细节。"
)

// jaccard 关键词集合的 Jaccard 相似度
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := tokenSet(a)
	setB := tokenSet(b)

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// wordOverlap 全文词重叠率，不过滤虚词，分母取较大词数
func wordOverlap(a, b string) float64 {
	wordsA := strings.FieldsFunc(strings.ToLower(a), isSeparator)
	wordsB := strings.FieldsFunc(strings.ToLower(b), isSeparator)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setB := tokenSet(wordsB)
	common := 0
	for _, w := range wordsA {
		if _, ok := setB[w]; ok {
			common++
		}
	}
	max := len(wordsA)
	if len(wordsB) > max {
		max = len(wordsB)
	}
	return float64(common) / float64(max)
}

// conceptIoU 两段文本涉及概念集合的交并比
func conceptIoU(a, b string) float64 {
	tagsA := mentionedConcepts(a)
	tagsB := mentionedConcepts(b)
	if len(tagsA) == 0 && len(tagsB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(tagsA))
	for _, t := range tagsA {
		setA[t] = struct{}{}
	}
	intersection := 0
	for _, t := range tagsB {
		if _, ok := setA[t]; ok {
			intersection++
		}
	}
	union := len(tagsA) + len(tagsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// EvaluateGuess 评估猜测并给出分档结果。
// 题库里有汤底时以汤底为比对目标，玩家猜的是真相而不是汤面本身；
// 猜对时返回完整汤底，自定义题目没有汤底则返回兜底揭示。
// 相同输入永远得到相同结果。
func EvaluateGuess(guess string, st *models.Story) *models.GuessResult {
	if st == nil || strings.TrimSpace(guess) == "" {
		return &models.GuessResult{IsCorrect: false, Score: 0, Message: msgWrong}
	}

	target := st.Solution
	if target == "" {
		target = st.Prompt
	}

	g := strings.ToLower(guess)
	t := strings.ToLower(target)

	score := weightGuessKeyword*jaccard(Tokenize(g), Tokenize(t)) +
		weightGuessText*wordOverlap(g, t) +
		weightGuessConcept*conceptIoU(g, t)

	switch {
	case score > bandCorrect:
		reveal := st.Solution
		if reveal == "" {
			reveal = genericReveal
		}
		return &models.GuessResult{IsCorrect: true, Score: score, Message: msgCorrect, FullStory: reveal}
	case score > bandClose:
		return &models.GuessResult{IsCorrect: false, Score: score, Message: msgClose}
	case score > bandDirection:
		return &models.GuessResult{IsCorrect: false, Score: score, Message: msgDirection}
	default:
		return &models.GuessResult{IsCorrect: false, Score: score, Message: msgWrong}
	}
}
