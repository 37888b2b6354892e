// story/story.go
package story

import (
	"math/rand"
	"sync"

	"github.com/wfunc/turtlesoup/models"
)

// 故事原型，用于提示生成时选择提示池
const (
	ArchetypeCannibalism = "cannibalism"
	ArchetypeSacrifice   = "sacrifice"
	ArchetypePhysical    = "physical"
	ArchetypePoison      = "poison"
	ArchetypeMedical     = "medical"
	ArchetypeSurvival    = "survival"
	ArchetypeGeneral     = "general"
)

// Registry 按ID管理题库。汤面对玩家可见，汤底只在猜对或游戏结束时揭示。
type Registry struct {
	stories map[string]*models.Story
	order   []string
	rng     *rand.Rand
	mutex   sync.RWMutex
}

// NewRegistry 创建带内置题库的注册表
func NewRegistry(seed int64) *Registry {
	r := &Registry{
		stories: make(map[string]*models.Story),
		rng:     rand.New(rand.NewSource(seed)),
	}
	for _, s := range builtinStories {
		r.Add(s)
	}
	return r
}

// Add 注册一道题目，返回是否为新增
func (r *Registry) Add(s *models.Story) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.stories[s.ID]; exists {
		r.stories[s.ID] = s
		return false
	}
	r.stories[s.ID] = s
	r.order = append(r.order, s.ID)
	return true
}

// Get 按ID查找题目
func (r *Registry) Get(id string) (*models.Story, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, exists := r.stories[id]
	return s, exists
}

// Pick 随机抽取一道题目
func (r *Registry) Pick() *models.Story {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.order) == 0 {
		return nil
	}
	id := r.order[r.rng.Intn(len(r.order))]
	return r.stories[id]
}

// Len 返回题库大小
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.order)
}

// 内置题库。汤底沿用经典版本的完整解答文本。
var builtinStories = []*models.Story{
	{
		ID:        "turtle-soup",
		Prompt:    "一个男人走进一家餐厅，点了一碗海龟汤。他尝了一口，然后自杀了。为什么？",
		Solution:  "这个男人曾经在海上遇难，在极度饥饿的情况下，他不得不吃同伴的尸体来生存。当他尝到海龟汤的味道时，想起了当时吃人肉的味道，因此选择了自杀。",
		Archetype: ArchetypeCannibalism,
	},
	{
		ID:        "desert-water",
		Prompt:    "一个女人在沙漠中迷路了。她找到了一具尸体，旁边有一瓶水。她喝了水，然后死了。为什么？",
		Solution:  "这具尸体是她的丈夫。他们在沙漠中迷路，丈夫为了让她活下去，选择了自杀，并留下了自己的血液作为水源。",
		Archetype: ArchetypeSacrifice,
	},
	{
		ID:        "elevator",
		Prompt:    "一个男人住在10楼。每天他都会坐电梯到1楼出门。但是回家时，他总是坐电梯到7楼，然后走楼梯到10楼。为什么？",
		Solution:  "这个男人是个侏儒，他只能按到1楼的按钮。回家时，他只能按到7楼的按钮，然后走楼梯到10楼。",
		Archetype: ArchetypePhysical,
	},
	{
		ID:        "fugu",
		Prompt:    "一对夫妇在餐厅吃饭。丈夫点了一份牛排，妻子点了一份鱼。丈夫尝了一口妻子的鱼，然后死了。为什么？",
		Solution:  "妻子点的不是鱼，而是河豚。河豚有毒，丈夫尝了一口就中毒身亡了。",
		Archetype: ArchetypePoison,
	},
	{
		ID:        "hiccup",
		Prompt:    "一个男人走进一家酒吧，向酒保要了一杯水。酒保拿出一把枪指着他。男人说谢谢，然后离开了。为什么？",
		Solution:  "这个男人有打嗝的毛病，他需要一杯水来止嗝。酒保用枪指着他是一种止嗝的方法，因为惊吓可以止嗝。",
		Archetype: ArchetypeMedical,
	},
}
