package room

import (
	"context"

	"github.com/wfunc/turtlesoup/models"
)

// Narrator defines the interface for the reasoning engine a room consults.
// This is defined here to break the import cycle between room and engine.
type Narrator interface {
	AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error)
	CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error)
	GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error)
}
