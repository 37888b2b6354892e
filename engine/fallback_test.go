package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/wfunc/turtlesoup/logger"
	"github.com/wfunc/turtlesoup/models"
)

var errEngineDown = errors.New("engine down")

// failingEngine 永远失败的远程引擎
type failingEngine struct{}

func (failingEngine) AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error) {
	return nil, errEngineDown
}

func (failingEngine) CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error) {
	return nil, errEngineDown
}

func (failingEngine) GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error) {
	return "", errEngineDown
}

// cannedEngine 永远成功并返回固定结果的远程引擎
type cannedEngine struct{}

func (cannedEngine) AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error) {
	return &models.Answer{Answer: models.AnswerYes, Score: 1}, nil
}

func (cannedEngine) CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error) {
	return &models.GuessResult{IsCorrect: true, Score: 1, Message: "ok", FullStory: "story"}, nil
}

func (cannedEngine) GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error) {
	return "remote hint", nil
}

func TestFallbackEngine_FallsBackOnFailure(t *testing.T) {
	logger.Init()

	fallbacks := 0
	e := NewFallbackEngine(failingEngine{}, NewLocalEngine(1), func() { fallbacks++ })
	ctx := context.Background()

	answer, err := e.AnswerQuestion(ctx, "他死了吗？", turtleSoupStory)
	if err != nil {
		t.Fatalf("AnswerQuestion must not propagate engine failure: %v", err)
	}
	if answer == nil || answer.Answer == "" {
		t.Fatal("Expected a usable local answer")
	}

	result, err := e.CheckGuess(ctx, "随便猜", turtleSoupStory)
	if err != nil || result == nil {
		t.Fatalf("CheckGuess must not propagate engine failure: %v", err)
	}

	hint, err := e.GenerateHint(ctx, turtleSoupStory, nil)
	if err != nil || hint == "" {
		t.Fatalf("GenerateHint must not propagate engine failure: %v (%q)", err, hint)
	}

	if fallbacks != 3 {
		t.Errorf("Expected 3 fallback notifications, got %d", fallbacks)
	}
}

func TestFallbackEngine_PrefersRemote(t *testing.T) {
	logger.Init()

	fallbacks := 0
	e := NewFallbackEngine(cannedEngine{}, NewLocalEngine(1), func() { fallbacks++ })
	ctx := context.Background()

	hint, err := e.GenerateHint(ctx, turtleSoupStory, nil)
	if err != nil {
		t.Fatalf("GenerateHint failed: %v", err)
	}
	if hint != "remote hint" {
		t.Errorf("Expected the remote result, got %q", hint)
	}
	if fallbacks != 0 {
		t.Errorf("Expected no fallback, got %d", fallbacks)
	}
}
