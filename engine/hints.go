// engine/hints.go
package engine

import (
	"math/rand"
	"strings"

	"github.com/wfunc/turtlesoup/models"
	"github.com/wfunc/turtlesoup/story"
)

// 通用提示池，适用于任何题目
var genericHints = []string{
	"注意故事中的时间顺序",
	"关注人物的身份和关系",
	"思考人物的动机",
	"注意环境因素",
	"考虑故事的背景",
	"关注细节描述",
	"思考因果关系",
	"注意人物的行为模式",
}

// 按原型划分的定向提示池
var archetypeHints = map[string][]string{
	story.ArchetypeCannibalism: {
		"想想主角过去可能经历过什么极端处境",
		"味道为什么会唤起他的记忆？",
	},
	story.ArchetypeSacrifice: {
		"有人为了别人付出了什么？",
		"水的来源可能不是你想的那样",
	},
	story.ArchetypePhysical: {
		"注意主角身体上的特征",
		"他为什么做不到一件普通人能做到的事？",
	},
	story.ArchetypePoison: {
		"食物真的是菜单上写的那种吗？",
		"死亡来得很快，想想是什么造成的",
	},
	story.ArchetypeMedical: {
		"看似威胁的举动可能是在帮忙",
		"主角来这里是想解决什么问题？",
	},
	story.ArchetypeSurvival: {
		"绝境中人会做出平时不会做的选择",
		"注意现场留下的每一样东西",
	},
}

// 故事文本兜底判断原型，自定义题目没有登记原型时使用
var archetypeCues = []struct {
	archetype string
	cues      []string
}{
	{story.ArchetypeCannibalism, []string{"人肉", "吃人", "同伴", "海龟汤"}},
	{story.ArchetypeSacrifice, []string{"血液", "牺牲", "救"}},
	{story.ArchetypePoison, []string{"毒", "河豚"}},
	{story.ArchetypeMedical, []string{"打嗝", "病", "惊吓"}},
	{story.ArchetypePhysical, []string{"电梯", "侏儒", "楼梯"}},
	{story.ArchetypeSurvival, []string{"沙漠", "迷路", "尸体"}},
}

// classifyArchetype 确定题目的提示池归属
func classifyArchetype(st *models.Story) string {
	if st == nil {
		return story.ArchetypeGeneral
	}
	if st.Archetype != "" {
		return st.Archetype
	}
	text := st.Prompt + st.Solution
	for _, entry := range archetypeCues {
		for _, cue := range entry.cues {
			if strings.Contains(text, cue) {
				return entry.archetype
			}
		}
	}
	return story.ArchetypeGeneral
}

// 已有线索时按进度给越来越明确的固定话术，不再随机抽取
const (
	hintTierHigh = "你已经掌握了关键线索，把它们按时间顺序串起来就是答案"
	hintTierMid  = "你已经发现了一些线索，尝试将它们联系起来"
	hintTierLow  = "继续深入探索故事的其他方面"
)

// generateHint 生成一条提示。
// 没有任何线索时从原型池+通用池均匀随机抽取；
// 已有线索时按线索数量给定向话术，提示的明确程度随进度单调上升。
func generateHint(rng *rand.Rand, st *models.Story, clueTitles []string) string {
	switch {
	case len(clueTitles) >= 3:
		return hintTierHigh
	case len(clueTitles) == 2:
		return hintTierMid
	case len(clueTitles) == 1:
		return hintTierLow
	}

	pool := append([]string{}, genericHints...)
	pool = append(pool, archetypeHints[classifyArchetype(st)]...)
	return pool[rng.Intn(len(pool))]
}
