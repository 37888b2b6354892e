// engine/fallback.go
package engine

import (
	"context"

	"github.com/wfunc/turtlesoup/logger"
	"github.com/wfunc/turtlesoup/models"
)

// FallbackEngine 优先调用远程引擎，失败时退回本地引擎。
// 对调用方而言提问/猜测/提示路径永远成功，EngineUnavailable 不会向外传播。
type FallbackEngine struct {
	remote     Engine
	local      Engine
	onFallback func()
}

// NewFallbackEngine 组合远程引擎和本地兜底。onFallback 可为 nil，
// 非 nil 时在每次回退发生后调用（用于打点）。
func NewFallbackEngine(remote, local Engine, onFallback func()) *FallbackEngine {
	return &FallbackEngine{remote: remote, local: local, onFallback: onFallback}
}

func (e *FallbackEngine) fellBack(err error) {
	logger.Log.Warnf("远程推理服务调用失败，使用本地引擎兜底: %v", err)
	if e.onFallback != nil {
		e.onFallback()
	}
}

// AnswerQuestion 见 Engine
func (e *FallbackEngine) AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error) {
	if answer, err := e.remote.AnswerQuestion(ctx, question, st); err == nil {
		return answer, nil
	} else {
		e.fellBack(err)
	}
	return e.local.AnswerQuestion(ctx, question, st)
}

// CheckGuess 见 Engine
func (e *FallbackEngine) CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error) {
	if result, err := e.remote.CheckGuess(ctx, guess, st); err == nil {
		return result, nil
	} else {
		e.fellBack(err)
	}
	return e.local.CheckGuess(ctx, guess, st)
}

// GenerateHint 见 Engine
func (e *FallbackEngine) GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error) {
	if hint, err := e.remote.GenerateHint(ctx, st, clueTitles); err == nil {
		return hint, nil
	} else {
		e.fellBack(err)
	}
	return e.local.GenerateHint(ctx, st, clueTitles)
}
