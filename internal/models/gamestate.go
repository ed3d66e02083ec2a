package models

import "time"

// GameAction is the current phase of a Fibbing It question cycle.
type GameAction string

// The three phases cycle SHOW_QUESTION -> SUBMIT_ANSWERS -> VOTE_ON_FIBBER.
const (
	ActionShowQuestion  GameAction = "SHOW_QUESTION"
	ActionSubmitAnswers GameAction = "SUBMIT_ANSWERS"
	ActionVoteOnFibber  GameAction = "VOTE_ON_FIBBER"
)

// GameRound identifies one of the three Fibbing It rounds.
type GameRound string

// Round order is fixed: opinion -> likely -> free_form.
const (
	RoundOpinion  GameRound = "opinion"
	RoundLikely   GameRound = "likely"
	RoundFreeForm GameRound = "free_form"
)

// PlayerScore tracks one player's score within a game.
type PlayerScore struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

// FibbingItQuestion is a single question slot. The fibber sees
// FibberQuestion, everyone else sees Question. Answers is the closed answer
// set for opinion/likely rounds and nil for free_form.
type FibbingItQuestion struct {
	FibberQuestion string   `json:"fibber_question"`
	Question       string   `json:"question"`
	Answers        []string `json:"answers,omitempty"`
}

// FibbingItRounds holds the questions drawn for each round.
type FibbingItRounds struct {
	Opinion  []FibbingItQuestion `json:"opinion"`
	Likely   []FibbingItQuestion `json:"likely"`
	FreeForm []FibbingItQuestion `json:"free_form"`
}

// FibbingItQuestionsState is the question cursor plus the answers collected
// for the current question. QuestionNb is -1 before the first question.
type FibbingItQuestionsState struct {
	Rounds         FibbingItRounds   `json:"rounds"`
	QuestionNb     int               `json:"question_nb"`
	CurrentAnswers map[string]string `json:"current_answers"`
}

// FibbingItState is the full Fibbing It game state for one room.
type FibbingItState struct {
	CurrentFibberID string                  `json:"current_fibber_id"`
	CurrentRound    GameRound               `json:"current_round"`
	Questions       FibbingItQuestionsState `json:"questions"`
}

// Clone returns a deep copy so engine functions can stay state-in/state-out.
func (s *FibbingItState) Clone() *FibbingItState {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Questions.CurrentAnswers = make(map[string]string, len(s.Questions.CurrentAnswers))
	for k, v := range s.Questions.CurrentAnswers {
		clone.Questions.CurrentAnswers[k] = v
	}
	clone.Questions.Rounds.Opinion = cloneQuestions(s.Questions.Rounds.Opinion)
	clone.Questions.Rounds.Likely = cloneQuestions(s.Questions.Rounds.Likely)
	clone.Questions.Rounds.FreeForm = cloneQuestions(s.Questions.Rounds.FreeForm)
	return &clone
}

func cloneQuestions(questions []FibbingItQuestion) []FibbingItQuestion {
	out := make([]FibbingItQuestion, len(questions))
	copy(out, questions)
	for i := range out {
		if questions[i].Answers != nil {
			out[i].Answers = append([]string(nil), questions[i].Answers...)
		}
	}
	return out
}

// GamePaused records whether a game is paused and which disconnected players
// it is waiting for. PausedStoppedAt is an absolute ceiling, not a timer.
type GamePaused struct {
	IsPaused          bool       `json:"is_paused"`
	PausedStoppedAt   *time.Time `json:"paused_stopped_at,omitempty"`
	WaitingForPlayers []string   `json:"waiting_for_players"`
}

// GameState is the per-room game document, owned 1:1 by a Room.
type GameState struct {
	RoomID                string          `gorm:"primaryKey;uniqueIndex" json:"room_id"`
	GameName              string          `json:"game_name"`
	PlayerScores          []PlayerScore   `gorm:"serializer:json" json:"player_scores"`
	State                 *FibbingItState `gorm:"serializer:json" json:"state,omitempty"`
	Action                GameAction      `json:"action"`
	ActionCompletedBy     *time.Time      `json:"action_completed_by,omitempty"`
	AnswersExpectedByTime *time.Time      `json:"answers_expected_by_time,omitempty"`
	Paused                GamePaused      `gorm:"serializer:json" json:"paused"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// NextQuestion bundles everything a client needs for the next question.
type NextQuestion struct {
	UpdatedRound   UpdateQuestionRoundState `json:"updated_round"`
	Question       *FibbingItQuestion       `json:"next_question,omitempty"`
	TimerInSeconds int                      `json:"timer_in_seconds"`
}

// UpdateQuestionRoundState reports whether advancing the cursor changed round.
type UpdateQuestionRoundState struct {
	RoundChanged bool      `json:"round_changed"`
	NewRound     GameRound `json:"new_round,omitempty"`
}
