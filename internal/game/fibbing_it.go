// Package game implements the Fibbing It game engine. All functions are pure
// state-in/state-out computations; persistence and fan-out live in the
// services and handlers built on top.
package game

import (
	"math/rand"
	"time"

	"banterbus/internal/models"
)

// FibbingItName is the catalog name of the only implemented game.
const FibbingItName = "fibbing_it"

// DefaultQuestionsPerRound is the number of questions drawn per round.
const DefaultQuestionsPerRound = 3

// FreeFormAnswerMaxLen bounds free-text answers.
const FreeFormAnswerMaxLen = 250

// roundOrder is fixed: opinion -> likely -> free_form.
var roundOrder = []models.GameRound{models.RoundOpinion, models.RoundLikely, models.RoundFreeForm}

// FibbingIt holds the per-game configuration of the engine.
type FibbingIt struct {
	questionsPerRound int
	roundTimers       map[models.GameAction]map[models.GameRound]int
}

// NewFibbingIt returns an engine configured with the given number of
// questions per round; zero or negative falls back to the default.
func NewFibbingIt(questionsPerRound int) *FibbingIt {
	if questionsPerRound <= 0 {
		questionsPerRound = DefaultQuestionsPerRound
	}
	return &FibbingIt{
		questionsPerRound: questionsPerRound,
		roundTimers: map[models.GameAction]map[models.GameRound]int{
			models.ActionShowQuestion:  {models.RoundOpinion: 45, models.RoundLikely: 30, models.RoundFreeForm: 60},
			models.ActionSubmitAnswers: {models.RoundOpinion: 30, models.RoundLikely: 30, models.RoundFreeForm: 30},
			models.ActionVoteOnFibber:  {models.RoundOpinion: 60, models.RoundLikely: 60, models.RoundFreeForm: 60},
		},
	}
}

// QuestionsPerRound returns the configured questions-per-round count.
func (f *FibbingIt) QuestionsPerRound() int {
	return f.questionsPerRound
}

// UpdateQuestionState advances the question cursor. It returns nil when the
// pre-state is the last question of free_form, the terminal position.
func (f *FibbingIt) UpdateQuestionState(state *models.FibbingItState) *models.FibbingItState {
	next := state.Clone()
	if next.Questions.QuestionNb == f.questionsPerRound-1 {
		roundIndex := indexOfRound(next.CurrentRound)
		if roundIndex == len(roundOrder)-1 {
			return nil
		}
		next.CurrentRound = roundOrder[roundIndex+1]
		next.Questions.QuestionNb = 0
	} else {
		next.Questions.QuestionNb++
	}
	return next
}

// GetNextQuestion returns the question at the current cursor, or nil when the
// cursor sits on the final free_form question.
func (f *FibbingIt) GetNextQuestion(state *models.FibbingItState) *models.FibbingItQuestion {
	if state.CurrentRound == models.RoundFreeForm && state.Questions.QuestionNb == f.questionsPerRound-1 {
		return nil
	}

	var questions []models.FibbingItQuestion
	switch state.CurrentRound {
	case models.RoundOpinion:
		questions = state.Questions.Rounds.Opinion
	case models.RoundLikely:
		questions = state.Questions.Rounds.Likely
	default:
		questions = state.Questions.Rounds.FreeForm
	}

	if state.Questions.QuestionNb < 0 || state.Questions.QuestionNb >= len(questions) {
		return nil
	}
	question := questions[state.Questions.QuestionNb]
	return &question
}

// GetTimer returns the per-round timer for an action in seconds.
func (f *FibbingIt) GetTimer(round models.GameRound, action models.GameAction) int {
	return f.roundTimers[action][round]
}

// HasRoundChanged reports whether the round changed: true at the very first
// question (opinion, cursor 0) or whenever old and new rounds differ.
func (f *FibbingIt) HasRoundChanged(state *models.FibbingItState, oldRound, newRound models.GameRound) bool {
	if state.CurrentRound == models.RoundOpinion && state.Questions.QuestionNb == 0 {
		return true
	}
	return oldRound != newRound
}

// GetNextAction returns the successor in the three-action cycle.
func (f *FibbingIt) GetNextAction(current models.GameAction) models.GameAction {
	switch current {
	case models.ActionShowQuestion:
		return models.ActionSubmitAnswers
	case models.ActionSubmitAnswers:
		return models.ActionVoteOnFibber
	default:
		return models.ActionShowQuestion
	}
}

// SubmitAnswers validates and records one player's answer for the current
// question. The submission window is enforced against ActionCompletedBy.
func (f *FibbingIt) SubmitAnswers(
	gameState *models.GameState, playerIDs []string, playerID, answer string,
) (*models.FibbingItState, error) {
	if err := f.checkSubmitWindowOpen(gameState); err != nil {
		return nil, err
	}

	state := gameState.State.Clone()
	switch state.CurrentRound {
	case models.RoundFreeForm:
		if len(answer) > FreeFormAnswerMaxLen {
			return nil, models.NewAppError(models.CodeInvalidAnswer, "invalid answer too long")
		}
	case models.RoundOpinion:
		question := f.GetNextQuestion(state)
		if question != nil && len(question.Answers) > 0 && !contains(question.Answers, answer) {
			return nil, models.NewAppError(models.CodeInvalidAnswer, "invalid answer for round opinion")
		}
	case models.RoundLikely:
		if !contains(playerIDs, answer) {
			return nil, models.NewAppError(models.CodeInvalidAnswer, "invalid answer for round likely")
		}
	}

	state.Questions.CurrentAnswers[playerID] = answer
	return state, nil
}

// SelectRandomAnswer fills an answer for every player that has not submitted
// one. It may only run once the submission window has closed.
func (f *FibbingIt) SelectRandomAnswer(
	gameState *models.GameState, playerIDs []string,
) (*models.FibbingItState, error) {
	if err := f.checkActionIsSubmit(gameState); err != nil {
		return nil, err
	}
	if gameState.ActionCompletedBy == nil {
		return nil, models.NewAppError(models.CodeInvalidGameState,
			"expected game state action_completed_by to exist")
	}
	if time.Now().Before(*gameState.ActionCompletedBy) {
		return nil, models.NewAppError(models.CodeActionNotTimedOut,
			"cannot complete action is not yet out of time")
	}

	state := gameState.State.Clone()
	for _, playerID := range playerIDs {
		if _, ok := state.Questions.CurrentAnswers[playerID]; ok {
			continue
		}
		if state.CurrentRound == models.RoundFreeForm {
			state.Questions.CurrentAnswers[playerID] = ""
			continue
		}
		question := f.GetNextQuestion(state)
		if question == nil || len(question.Answers) == 0 {
			return nil, models.NewAppError(models.CodeNoAnswersFound, "no answers found for question")
		}
		state.Questions.CurrentAnswers[playerID] = question.Answers[rand.Intn(len(question.Answers))]
	}
	return state, nil
}

// GetPlayerAnswers maps each recorded answer to the player's nickname.
func (f *FibbingIt) GetPlayerAnswers(
	state *models.FibbingItState, playerNicknames map[string]string,
) map[string]string {
	answers := make(map[string]string, len(playerNicknames))
	for playerID, nickname := range playerNicknames {
		answers[nickname] = state.Questions.CurrentAnswers[playerID]
	}
	return answers
}

func (f *FibbingIt) checkActionIsSubmit(gameState *models.GameState) error {
	if gameState.State == nil || gameState.Action != models.ActionSubmitAnswers {
		return models.NewAppError(models.CodeInvalidAction,
			"expected action to be %s, current action %s", models.ActionSubmitAnswers, gameState.Action)
	}
	return nil
}

func (f *FibbingIt) checkSubmitWindowOpen(gameState *models.GameState) error {
	if err := f.checkActionIsSubmit(gameState); err != nil {
		return err
	}
	if gameState.ActionCompletedBy == nil {
		return models.NewAppError(models.CodeInvalidGameState,
			"expected game state action_completed_by to exist")
	}
	now := time.Now()
	if !now.Before(*gameState.ActionCompletedBy) {
		return &models.ActionTimedOutError{Now: now, CompletedBy: *gameState.ActionCompletedBy}
	}
	return nil
}

func indexOfRound(round models.GameRound) int {
	for i, r := range roundOrder {
		if r == round {
			return i
		}
	}
	return 0
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
