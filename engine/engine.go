// engine/engine.go
package engine

import (
	"context"
	"math/rand"
	"sync"

	"github.com/wfunc/turtlesoup/models"
)

// Engine 叙述者引擎接口。三个操作分别对应提问、猜测、提示，
// 实现可以是本地启发式，也可以是外部推理服务的远程委托。
type Engine interface {
	AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error)
	CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error)
	GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error)
}

// LocalEngine 确定性的本地启发式引擎，永不返回错误
type LocalEngine struct {
	rng   *rand.Rand
	mutex sync.Mutex
}

// NewLocalEngine 创建本地引擎，seed 只影响零线索时的提示抽取
func NewLocalEngine(seed int64) *LocalEngine {
	return &LocalEngine{rng: rand.New(rand.NewSource(seed))}
}

// AnswerQuestion 基于汤面对提问分类
func (e *LocalEngine) AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error) {
	prompt := ""
	if st != nil {
		prompt = st.Prompt
	}
	return ClassifyQuestion(question, prompt), nil
}

// CheckGuess 评估猜测
func (e *LocalEngine) CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error) {
	return EvaluateGuess(guess, st), nil
}

// GenerateHint 生成提示
func (e *LocalEngine) GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return generateHint(e.rng, st, clueTitles), nil
}
