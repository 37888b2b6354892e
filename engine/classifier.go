// engine/classifier.go
package engine

import (
	"strings"

	"github.com/wfunc/turtlesoup/models"
)

// 分类得分权重与阈值。阈值自高到低判定，保证每个问题落在且只落在一个档位。
const (
	weightKeyword = 0.5
	weightConcept = 0.3
	weightFocus   = 0.2

	thresholdYes        = 0.8
	thresholdClose      = 0.6
	thresholdIrrelevant = 0.3
)

// 判断是否为"是/不是"式提问的结尾助词和疑问结构。
// 这是可调的启发式，宁可宽松也不误杀正常提问。
var yesNoMarkers = []string{
	"吗", "嗎", "是不是", "有没有", "会不会", "对不对", "是否",
}

var yesNoPrefixes = []string{
	"is ", "was ", "are ", "were ", "do ", "does ", "did ",
	"can ", "could ", "has ", "have ", "had ",
}

// IsYesNoQuestion 校验提问是否是能用"是/不是"回答的形式
func IsYesNoQuestion(question string) bool {
	q := strings.TrimSpace(strings.ToLower(question))
	q = strings.TrimRight(q, "？?！!。.")
	if q == "" {
		return false
	}
	for _, marker := range yesNoMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	for _, prefix := range yesNoPrefixes {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// 提问焦点分类，用于判断问题问的方向是否和故事线索一致
type questionFocus int

const (
	focusGeneral questionFocus = iota
	focusMotive
	focusWhat
	focusWho
	focusHow
	focusWhen
)

var focusCues = map[questionFocus][]string{
	focusMotive: {"为什么", "动机", "原因", "why"},
	focusWhat:   {"什么", "何物", "what"},
	focusWho:    {"谁", "身份", "who"},
	focusHow:    {"怎么", "如何", "怎样", "how"},
	focusWhen:   {"时候", "何时", "之前", "之后", "when"},
}

// 故事文本中能印证各类焦点的线索子串
var storyFocusCues = map[questionFocus][]string{
	focusMotive: {"为什么", "因此", "为了", "因为"},
	focusWhat:   {"点了", "一碗", "一杯", "一份", "一瓶"},
	focusWho:    {"男人", "女人", "丈夫", "妻子", "酒保", "夫妇"},
	focusHow:    {"走进", "坐电梯", "走楼梯", "尝了", "喝了"},
	focusWhen:   {"每天", "回家", "然后", "曾经"},
}

func classifyFocus(question string) questionFocus {
	q := strings.ToLower(question)
	for focus, cues := range focusCues {
		for _, cue := range cues {
			if strings.Contains(q, cue) {
				return focus
			}
		}
	}
	return focusGeneral
}

// focusScore 提问焦点与故事线索吻合时给高分，否则给保底分
func focusScore(question, story string) float64 {
	focus := classifyFocus(question)
	if focus == focusGeneral {
		return 0.5
	}
	for _, cue := range storyFocusCues[focus] {
		if strings.Contains(story, cue) {
			return 1.0
		}
	}
	return 0.3
}

// keywordOverlap 关键词重叠率 = 交集大小 / 两侧较大词数
func keywordOverlap(questionTokens, storyTokens []string) float64 {
	if len(questionTokens) == 0 || len(storyTokens) == 0 {
		return 0
	}
	storySet := tokenSet(storyTokens)
	common := 0
	for _, t := range questionTokens {
		if _, ok := storySet[t]; ok {
			common++
		}
	}
	max := len(storyTokens)
	if len(questionTokens) > max {
		max = len(questionTokens)
	}
	return float64(common) / float64(max)
}

// conceptMatch 返回 (匹配率, 提问涉及的概念数)。
// 对提问涉及的每个概念，检查故事是否同样体现该概念。
func conceptMatch(question, story string) (float64, int) {
	mentioned := mentionedConcepts(question)
	if len(mentioned) == 0 {
		return 0, 0
	}
	matched := 0
	for _, tag := range mentioned {
		if hasConcept(story, tag) {
			matched++
		}
	}
	return float64(matched) / float64(len(mentioned)), len(mentioned)
}

// 每个档位的固定解释话术
var answerExplanations = map[models.AnswerType]string{
	models.AnswerYes:        "是的，这个方向是对的。",
	models.AnswerClose:      "你已经很接近了，再具体一点。",
	models.AnswerIrrelevant: "这个问题和故事的关键没有太大关系。",
	models.AnswerNo:         "不是。",
}

const rephraseExplanation = "请用能以\"是\"或\"不是\"回答的方式提问。"

// ClassifyQuestion 对提问打分并映射到 yes/close/irrelevant/no 四档。
// 纯函数，不产生副作用；空输入得分为0。
func ClassifyQuestion(question, story string) *models.Answer {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(story) == "" {
		return &models.Answer{
			Answer:      models.AnswerIrrelevant,
			Score:       0,
			Explanation: rephraseExplanation,
		}
	}

	if !IsYesNoQuestion(question) {
		return &models.Answer{
			Answer:      models.AnswerIrrelevant,
			Score:       0,
			Explanation: rephraseExplanation,
		}
	}

	q := strings.ToLower(question)
	s := strings.ToLower(story)

	kw := keywordOverlap(Tokenize(q), Tokenize(s))
	concept, mentioned := conceptMatch(q, s)
	focus := focusScore(q, s)

	score := weightKeyword*kw + weightConcept*concept + weightFocus*focus

	// 提问涉及的概念全部被故事印证时，至少给到"接近"档，
	// 避免中文整句分词偶然不重叠时把命中概念的问题打成"不是"。
	if mentioned > 0 && concept == 1.0 && score < thresholdClose {
		score = thresholdClose
	}

	answer := bandFor(score)
	return &models.Answer{
		Answer:      answer,
		Score:       score,
		Explanation: answerExplanations[answer],
	}
}

// bandFor 把得分映射到回答档位，阈值单调递减依次判定
func bandFor(score float64) models.AnswerType {
	switch {
	case score >= thresholdYes:
		return models.AnswerYes
	case score >= thresholdClose:
		return models.AnswerClose
	case score >= thresholdIrrelevant:
		return models.AnswerIrrelevant
	default:
		return models.AnswerNo
	}
}
