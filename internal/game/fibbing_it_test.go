package game

import (
	"errors"
	"testing"
	"time"

	"banterbus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuestions(prefix string, answers []string) []models.FibbingItQuestion {
	questions := make([]models.FibbingItQuestion, 3)
	for i := range questions {
		questions[i] = models.FibbingItQuestion{
			FibberQuestion: prefix + " fibber",
			Question:       prefix + " real",
			Answers:        answers,
		}
	}
	return questions
}

func testState(round models.GameRound, questionNb int) *models.FibbingItState {
	return &models.FibbingItState{
		CurrentFibberID: "fibber-id",
		CurrentRound:    round,
		Questions: models.FibbingItQuestionsState{
			Rounds: models.FibbingItRounds{
				Opinion:  testQuestions("opinion", []string{"agree", "disagree", "lame"}),
				Likely:   testQuestions("likely", []string{"Majiy", "Lucy"}),
				FreeForm: testQuestions("free_form", nil),
			},
			QuestionNb:     questionNb,
			CurrentAnswers: map[string]string{},
		},
	}
}

func testGameState(round models.GameRound, questionNb int, action models.GameAction, completedBy time.Time) *models.GameState {
	return &models.GameState{
		RoomID:            "room-1",
		GameName:          FibbingItName,
		State:             testState(round, questionNb),
		Action:            action,
		ActionCompletedBy: &completedBy,
	}
}

func TestUpdateQuestionState(t *testing.T) {
	engine := NewFibbingIt(3)

	t.Run("increments cursor within a round", func(t *testing.T) {
		next := engine.UpdateQuestionState(testState(models.RoundOpinion, -1))
		require.NotNil(t, next)
		assert.Equal(t, models.RoundOpinion, next.CurrentRound)
		assert.Equal(t, 0, next.Questions.QuestionNb)
	})

	t.Run("advances round at the last question", func(t *testing.T) {
		next := engine.UpdateQuestionState(testState(models.RoundOpinion, 2))
		require.NotNil(t, next)
		assert.Equal(t, models.RoundLikely, next.CurrentRound)
		assert.Equal(t, 0, next.Questions.QuestionNb)

		next = engine.UpdateQuestionState(testState(models.RoundLikely, 2))
		require.NotNil(t, next)
		assert.Equal(t, models.RoundFreeForm, next.CurrentRound)
		assert.Equal(t, 0, next.Questions.QuestionNb)
	})

	t.Run("terminal only at the last free_form question", func(t *testing.T) {
		assert.Nil(t, engine.UpdateQuestionState(testState(models.RoundFreeForm, 2)))
		assert.NotNil(t, engine.UpdateQuestionState(testState(models.RoundFreeForm, 1)))
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		state := testState(models.RoundOpinion, 0)
		_ = engine.UpdateQuestionState(state)
		assert.Equal(t, 0, state.Questions.QuestionNb)
	})

	t.Run("cursor stays within bounds", func(t *testing.T) {
		state := testState(models.RoundOpinion, -1)
		for state != nil {
			assert.GreaterOrEqual(t, state.Questions.QuestionNb, -1)
			assert.LessOrEqual(t, state.Questions.QuestionNb, 2)
			assert.Contains(t,
				[]models.GameRound{models.RoundOpinion, models.RoundLikely, models.RoundFreeForm},
				state.CurrentRound)
			state = engine.UpdateQuestionState(state)
		}
	})
}

func TestGetNextQuestion(t *testing.T) {
	engine := NewFibbingIt(3)

	t.Run("returns the question at the cursor", func(t *testing.T) {
		question := engine.GetNextQuestion(testState(models.RoundLikely, 1))
		require.NotNil(t, question)
		assert.Equal(t, "likely real", question.Question)
	})

	t.Run("nil at the final free_form question", func(t *testing.T) {
		assert.Nil(t, engine.GetNextQuestion(testState(models.RoundFreeForm, 2)))
	})
}

func TestGetTimer(t *testing.T) {
	engine := NewFibbingIt(3)

	assert.Equal(t, 45, engine.GetTimer(models.RoundOpinion, models.ActionShowQuestion))
	assert.Equal(t, 30, engine.GetTimer(models.RoundLikely, models.ActionShowQuestion))
	assert.Equal(t, 60, engine.GetTimer(models.RoundFreeForm, models.ActionShowQuestion))
	assert.Equal(t, 30, engine.GetTimer(models.RoundOpinion, models.ActionSubmitAnswers))
	assert.Equal(t, 60, engine.GetTimer(models.RoundLikely, models.ActionVoteOnFibber))
}

func TestGetNextAction(t *testing.T) {
	engine := NewFibbingIt(3)

	assert.Equal(t, models.ActionSubmitAnswers, engine.GetNextAction(models.ActionShowQuestion))
	assert.Equal(t, models.ActionVoteOnFibber, engine.GetNextAction(models.ActionSubmitAnswers))
	assert.Equal(t, models.ActionShowQuestion, engine.GetNextAction(models.ActionVoteOnFibber))
}

func TestHasRoundChanged(t *testing.T) {
	engine := NewFibbingIt(3)

	t.Run("true at the first question of the game", func(t *testing.T) {
		state := testState(models.RoundOpinion, 0)
		assert.True(t, engine.HasRoundChanged(state, models.RoundOpinion, models.RoundOpinion))
	})

	t.Run("true when rounds differ", func(t *testing.T) {
		state := testState(models.RoundLikely, 0)
		assert.True(t, engine.HasRoundChanged(state, models.RoundOpinion, models.RoundLikely))
	})

	t.Run("false mid round", func(t *testing.T) {
		state := testState(models.RoundLikely, 1)
		assert.False(t, engine.HasRoundChanged(state, models.RoundLikely, models.RoundLikely))
	})
}

func TestSubmitAnswers(t *testing.T) {
	engine := NewFibbingIt(3)
	playerIDs := []string{"p1", "p2", "fibber-id"}
	future := time.Now().Add(30 * time.Second)

	t.Run("records a valid opinion answer", func(t *testing.T) {
		gs := testGameState(models.RoundOpinion, 0, models.ActionSubmitAnswers, future)
		state, err := engine.SubmitAnswers(gs, playerIDs, "p1", "lame")
		require.NoError(t, err)
		assert.Equal(t, "lame", state.Questions.CurrentAnswers["p1"])
	})

	t.Run("rejects an opinion answer outside the answer set", func(t *testing.T) {
		gs := testGameState(models.RoundOpinion, 0, models.ActionSubmitAnswers, future)
		_, err := engine.SubmitAnswers(gs, playerIDs, "p1", "not-an-option")
		assert.True(t, models.HasCode(err, models.CodeInvalidAnswer))
	})

	t.Run("likely answers must name a player", func(t *testing.T) {
		gs := testGameState(models.RoundLikely, 0, models.ActionSubmitAnswers, future)
		_, err := engine.SubmitAnswers(gs, playerIDs, "p1", "nobody")
		assert.True(t, models.HasCode(err, models.CodeInvalidAnswer))

		state, err := engine.SubmitAnswers(gs, playerIDs, "p1", "p2")
		require.NoError(t, err)
		assert.Equal(t, "p2", state.Questions.CurrentAnswers["p1"])
	})

	t.Run("free_form answers bounded at 250 chars", func(t *testing.T) {
		gs := testGameState(models.RoundFreeForm, 0, models.ActionSubmitAnswers, future)
		long := make([]byte, FreeFormAnswerMaxLen+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err := engine.SubmitAnswers(gs, playerIDs, "p1", string(long))
		assert.True(t, models.HasCode(err, models.CodeInvalidAnswer))

		_, err = engine.SubmitAnswers(gs, playerIDs, "p1", "anything goes")
		assert.NoError(t, err)
	})

	t.Run("window closed yields a timeout", func(t *testing.T) {
		past := time.Now().Add(-time.Second)
		gs := testGameState(models.RoundOpinion, 0, models.ActionSubmitAnswers, past)
		_, err := engine.SubmitAnswers(gs, playerIDs, "p1", "lame")

		var timedOut *models.ActionTimedOutError
		require.True(t, errors.As(err, &timedOut))
		assert.Equal(t, past, timedOut.CompletedBy)
	})

	t.Run("wrong action rejected", func(t *testing.T) {
		gs := testGameState(models.RoundOpinion, 0, models.ActionShowQuestion, future)
		_, err := engine.SubmitAnswers(gs, playerIDs, "p1", "lame")
		assert.True(t, models.HasCode(err, models.CodeInvalidAction))
	})

	t.Run("idempotent and monotonic", func(t *testing.T) {
		gs := testGameState(models.RoundOpinion, 0, models.ActionSubmitAnswers, future)
		state, err := engine.SubmitAnswers(gs, playerIDs, "p1", "lame")
		require.NoError(t, err)
		gs.State = state

		state, err = engine.SubmitAnswers(gs, playerIDs, "p1", "lame")
		require.NoError(t, err)
		assert.Len(t, state.Questions.CurrentAnswers, 1)

		state, err = engine.SubmitAnswers(gs, playerIDs, "p2", "agree")
		require.NoError(t, err)
		assert.Len(t, state.Questions.CurrentAnswers, 2)
	})
}

func TestSelectRandomAnswer(t *testing.T) {
	engine := NewFibbingIt(3)
	playerIDs := []string{"p1", "p2", "fibber-id"}

	t.Run("rejected before the window closes", func(t *testing.T) {
		gs := testGameState(models.RoundOpinion, 0, models.ActionSubmitAnswers, time.Now().Add(time.Minute))
		_, err := engine.SelectRandomAnswer(gs, playerIDs)
		assert.True(t, models.HasCode(err, models.CodeActionNotTimedOut))
	})

	t.Run("fills every missing answer from the answer set", func(t *testing.T) {
		gs := testGameState(models.RoundOpinion, 0, models.ActionSubmitAnswers, time.Now().Add(-time.Second))
		gs.State.Questions.CurrentAnswers["p1"] = "lame"

		state, err := engine.SelectRandomAnswer(gs, playerIDs)
		require.NoError(t, err)
		assert.Equal(t, "lame", state.Questions.CurrentAnswers["p1"])
		for _, id := range playerIDs {
			answer, ok := state.Questions.CurrentAnswers[id]
			require.True(t, ok, "missing answer for %s", id)
			if id != "p1" {
				assert.Contains(t, []string{"agree", "disagree", "lame"}, answer)
			}
		}
	})

	t.Run("free_form fills empty strings", func(t *testing.T) {
		gs := testGameState(models.RoundFreeForm, 0, models.ActionSubmitAnswers, time.Now().Add(-time.Second))
		state, err := engine.SelectRandomAnswer(gs, playerIDs)
		require.NoError(t, err)
		for _, id := range playerIDs {
			answer, ok := state.Questions.CurrentAnswers[id]
			require.True(t, ok)
			assert.Empty(t, answer)
		}
	})
}

func TestGetPlayerAnswers(t *testing.T) {
	engine := NewFibbingIt(3)
	state := testState(models.RoundOpinion, 0)
	state.Questions.CurrentAnswers = map[string]string{"p1": "lame", "p2": "agree"}

	answers := engine.GetPlayerAnswers(state, map[string]string{"p1": "Majiy", "p2": "Lucy"})
	assert.Equal(t, map[string]string{"Majiy": "lame", "Lucy": "agree"}, answers)
}
