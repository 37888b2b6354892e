package engine

import (
	"testing"

	"github.com/wfunc/turtlesoup/models"
)

const turtleSoupPrompt = "一个男人走进一家餐厅，点了一碗海龟汤。他尝了一口，然后自杀了。为什么？"

func TestIsYesNoQuestion(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"他死了吗？", true},
		{"他是不是厨师？", true},
		{"故事里有没有其他人？", true},
		{"他会不会游泳", true},
		{"Is he dead?", true},
		{"Did he know the taste?", true},
		{"为什么他要自杀？", false},
		{"讲讲这个故事", false},
		{"", false},
		{"？？？", false},
	}
	for _, tt := range tests {
		if got := IsYesNoQuestion(tt.question); got != tt.want {
			t.Errorf("IsYesNoQuestion(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}

func TestClassifyQuestion_NonYesNo(t *testing.T) {
	answer := ClassifyQuestion("为什么他要自杀", turtleSoupPrompt)

	if answer.Answer != models.AnswerIrrelevant {
		t.Errorf("Expected irrelevant, got %s", answer.Answer)
	}
	if answer.Score != 0 {
		t.Errorf("Expected score 0, got %f", answer.Score)
	}
	if answer.Explanation != rephraseExplanation {
		t.Errorf("Expected rephrase explanation, got %q", answer.Explanation)
	}
}

func TestClassifyQuestion_EmptyInput(t *testing.T) {
	for _, tt := range []struct{ question, story string }{
		{"", turtleSoupPrompt},
		{"他死了吗？", ""},
		{"  ", "  "},
	} {
		answer := ClassifyQuestion(tt.question, tt.story)
		if answer.Score != 0 || answer.Answer != models.AnswerIrrelevant {
			t.Errorf("ClassifyQuestion(%q, %q): expected irrelevant/0, got %s/%f",
				tt.question, tt.story, answer.Answer, answer.Score)
		}
	}
}

// 问到故事体现的概念时，至少要落在"接近"档，绝不能判成"不是"
func TestClassifyQuestion_ConceptHit(t *testing.T) {
	answer := ClassifyQuestion("这个男人死了吗？", turtleSoupPrompt)

	if answer.Answer != models.AnswerYes && answer.Answer != models.AnswerClose {
		t.Errorf("Expected yes or close, got %s (score %f)", answer.Answer, answer.Score)
	}
	if answer.Score < thresholdClose {
		t.Errorf("Expected score >= %f, got %f", thresholdClose, answer.Score)
	}
}

func TestClassifyQuestion_Unrelated(t *testing.T) {
	answer := ClassifyQuestion("他有没有养一只猫？", turtleSoupPrompt)

	if answer.Answer != models.AnswerNo {
		t.Errorf("Expected no for an unrelated question, got %s (score %f)", answer.Answer, answer.Score)
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score float64
		want  models.AnswerType
	}{
		{1.0, models.AnswerYes},
		{0.8, models.AnswerYes},
		{0.79, models.AnswerClose},
		{0.6, models.AnswerClose},
		{0.59, models.AnswerIrrelevant},
		{0.3, models.AnswerIrrelevant},
		{0.29, models.AnswerNo},
		{0, models.AnswerNo},
	}
	for _, tt := range tests {
		if got := bandFor(tt.score); got != tt.want {
			t.Errorf("bandFor(%f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The man ordered turtle soup, the soup was cold.")

	set := tokenSet(tokens)
	for _, want := range []string{"man", "ordered", "turtle", "soup", "cold"} {
		if _, ok := set[want]; !ok {
			t.Errorf("Expected token %q in %v", want, tokens)
		}
	}
	// 虚词和单字被丢弃，重复词只保留一次
	if _, ok := set["the"]; ok {
		t.Error("Stop word should be dropped")
	}
	count := 0
	for _, tok := range tokens {
		if tok == "soup" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected soup deduplicated, got %d occurrences", count)
	}
}
