package engine

import (
	"testing"

	"github.com/wfunc/turtlesoup/models"
)

var turtleSoupStory = &models.Story{
	ID:        "turtle-soup",
	Prompt:    "一个男人走进一家餐厅，点了一碗海龟汤。他尝了一口，然后自杀了。为什么？",
	Solution:  "这个男人曾经在海上遇难，在极度饥饿的情况下，他不得不吃同伴的尸体来生存。当他尝到海龟汤的味道时，想起了当时吃人肉的味道，因此选择了自杀。",
	Archetype: "cannibalism",
}

func TestEvaluateGuess_ExactSolution(t *testing.T) {
	result := EvaluateGuess(turtleSoupStory.Solution, turtleSoupStory)

	if !result.IsCorrect {
		t.Fatalf("Exact solution text should be correct, score=%f", result.Score)
	}
	if result.FullStory != turtleSoupStory.Solution {
		t.Error("Correct guess should reveal the full solution")
	}
	if result.Message != msgCorrect {
		t.Errorf("Expected %q, got %q", msgCorrect, result.Message)
	}
}

func TestEvaluateGuess_Deterministic(t *testing.T) {
	guess := "他以前吃过人肉，海龟汤的味道让他想起来了"

	first := EvaluateGuess(guess, turtleSoupStory)
	second := EvaluateGuess(guess, turtleSoupStory)

	if first.Score != second.Score || first.IsCorrect != second.IsCorrect || first.Message != second.Message {
		t.Errorf("Same input should give same result: %+v vs %+v", first, second)
	}
}

func TestEvaluateGuess_Unrelated(t *testing.T) {
	result := EvaluateGuess("他中了彩票很开心", turtleSoupStory)

	if result.IsCorrect {
		t.Error("Unrelated guess should not be correct")
	}
	if result.Message != msgWrong {
		t.Errorf("Expected %q, got %q", msgWrong, result.Message)
	}
	if result.FullStory != "" {
		t.Error("Wrong guess must not reveal the solution")
	}
}

func TestEvaluateGuess_EmptyInput(t *testing.T) {
	if result := EvaluateGuess("", turtleSoupStory); result.IsCorrect || result.Score != 0 {
		t.Errorf("Empty guess: expected incorrect/0, got %+v", result)
	}
	if result := EvaluateGuess("随便猜一个", nil); result.IsCorrect || result.Score != 0 {
		t.Errorf("Nil story: expected incorrect/0, got %+v", result)
	}
}

// 自定义题目没有登记汤底时，猜对返回通用揭示而不是空串
func TestEvaluateGuess_CustomStoryGenericReveal(t *testing.T) {
	custom := &models.Story{
		ID:     "custom-1",
		Prompt: "他每天深夜都去同一个码头，却从不上船。为什么？",
	}

	result := EvaluateGuess(custom.Prompt, custom)
	if !result.IsCorrect {
		t.Fatalf("Guessing the prompt verbatim should score correct, got %f", result.Score)
	}
	if result.FullStory != genericReveal {
		t.Errorf("Expected generic reveal, got %q", result.FullStory)
	}
}
