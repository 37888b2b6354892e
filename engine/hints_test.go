package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/wfunc/turtlesoup/models"
	"github.com/wfunc/turtlesoup/story"
)

func TestGenerateHint_Tiers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		clues []string
		want  string
	}{
		{[]string{"a", "b", "c"}, hintTierHigh},
		{[]string{"a", "b", "c", "d"}, hintTierHigh},
		{[]string{"a", "b"}, hintTierMid},
		{[]string{"a"}, hintTierLow},
	}
	for _, tt := range tests {
		if got := generateHint(rng, turtleSoupStory, tt.clues); got != tt.want {
			t.Errorf("generateHint with %d clues = %q, want %q", len(tt.clues), got, tt.want)
		}
	}
}

func TestGenerateHint_NoCluesDrawsFromPool(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	pool := map[string]struct{}{}
	for _, h := range genericHints {
		pool[h] = struct{}{}
	}
	for _, h := range archetypeHints[story.ArchetypeCannibalism] {
		pool[h] = struct{}{}
	}

	for i := 0; i < 20; i++ {
		hint := generateHint(rng, turtleSoupStory, nil)
		if _, ok := pool[hint]; !ok {
			t.Fatalf("Hint %q not in the generic+cannibalism pool", hint)
		}
	}
}

func TestClassifyArchetype(t *testing.T) {
	if got := classifyArchetype(nil); got != story.ArchetypeGeneral {
		t.Errorf("nil story: expected general, got %s", got)
	}
	if got := classifyArchetype(turtleSoupStory); got != story.ArchetypeCannibalism {
		t.Errorf("Registered archetype should win, got %s", got)
	}

	// 未登记原型的自定义题目按故事文本兜底归类
	custom := &models.Story{Prompt: "她在沙漠里走了三天"}
	if got := classifyArchetype(custom); got != story.ArchetypeSurvival {
		t.Errorf("Expected survival from cue text, got %s", got)
	}
	blank := &models.Story{Prompt: "他站在门口"}
	if got := classifyArchetype(blank); got != story.ArchetypeGeneral {
		t.Errorf("Expected general fallback, got %s", got)
	}
}

func TestLocalEngine_HintDeterministicBySeed(t *testing.T) {
	a := NewLocalEngine(7)
	b := NewLocalEngine(7)

	hintA, err := a.GenerateHint(context.Background(), turtleSoupStory, nil)
	if err != nil {
		t.Fatalf("GenerateHint failed: %v", err)
	}
	hintB, _ := b.GenerateHint(context.Background(), turtleSoupStory, nil)
	if hintA != hintB {
		t.Errorf("Same seed should yield same hint: %q vs %q", hintA, hintB)
	}
}
