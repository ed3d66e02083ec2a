package game

import (
	"context"
	"math/rand"

	"banterbus/internal/catalog"
	"banterbus/internal/models"
)

// roundsWithGroups identifies the rounds whose questions are drawn from
// catalog groups; likely draws plain random questions instead.
var roundsWithGroups = map[models.GameRound]bool{
	models.RoundOpinion:  true,
	models.RoundFreeForm: true,
}

// GetStartingState builds a fresh Fibbing It state: a uniformly random
// fibber and questionsPerRound questions for each round, with the cursor
// parked before the first question.
func (f *FibbingIt) GetStartingState(
	ctx context.Context, client catalog.Client, players []models.Player,
) (*models.FibbingItState, error) {
	if len(players) == 0 {
		return nil, models.NewAppError(models.CodeInvalidGameState, "cannot start a game with no players")
	}
	fibber := players[rand.Intn(len(players))]

	rounds := models.FibbingItRounds{}
	for _, round := range roundOrder {
		questions, err := f.questionsForRound(ctx, client, players, round)
		if err != nil {
			return nil, err
		}
		switch round {
		case models.RoundOpinion:
			rounds.Opinion = questions
		case models.RoundLikely:
			rounds.Likely = questions
		case models.RoundFreeForm:
			rounds.FreeForm = questions
		}
	}

	return &models.FibbingItState{
		CurrentFibberID: fibber.PlayerID,
		CurrentRound:    roundOrder[0],
		Questions: models.FibbingItQuestionsState{
			Rounds:         rounds,
			QuestionNb:     -1,
			CurrentAnswers: map[string]string{},
		},
	}, nil
}

func (f *FibbingIt) questionsForRound(
	ctx context.Context, client catalog.Client, players []models.Player, round models.GameRound,
) ([]models.FibbingItQuestion, error) {
	if roundsWithGroups[round] {
		return f.groupedQuestions(ctx, client, round)
	}
	return f.likelyQuestions(ctx, client, players, round)
}

// groupedQuestions draws one catalog group per question slot. Within each
// group, two distinct questions are sampled; one becomes the fibber's prompt
// and the other everyone else's. Opinion groups also carry a closed answer
// set; free_form does not.
func (f *FibbingIt) groupedQuestions(
	ctx context.Context, client catalog.Client, round models.GameRound,
) ([]models.FibbingItQuestion, error) {
	groups, err := client.GetRandomGroups(ctx, FibbingItName, round, f.questionsPerRound)
	if err != nil {
		return nil, err
	}

	questions := make([]models.FibbingItQuestion, 0, len(groups))
	for _, groupName := range groups {
		items, err := client.GetRandomQuestions(ctx, FibbingItName, round, groupName, 0)
		if err != nil {
			return nil, err
		}

		var question models.FibbingItQuestion
		switch round {
		case models.RoundOpinion:
			var contents, answers []string
			for _, item := range items {
				switch item.Type {
				case "question":
					contents = append(contents, item.Content)
				case "answer":
					answers = append(answers, item.Content)
				}
			}
			fibberQuestion, realQuestion, err := sampleTwo(contents)
			if err != nil {
				return nil, err
			}
			question = models.FibbingItQuestion{
				FibberQuestion: fibberQuestion,
				Question:       realQuestion,
				Answers:        answers,
			}
		case models.RoundFreeForm:
			contents := make([]string, 0, len(items))
			for _, item := range items {
				contents = append(contents, item.Content)
			}
			fibberQuestion, realQuestion, err := sampleTwo(contents)
			if err != nil {
				return nil, err
			}
			question = models.FibbingItQuestion{
				FibberQuestion: fibberQuestion,
				Question:       realQuestion,
			}
		default:
			return nil, models.NewAppError(models.CodeInvalidGameRound, "unexpected game round %s", round)
		}

		questions = append(questions, question)
	}
	return questions, nil
}

// likelyQuestions draws plain random questions; every player's nickname is a
// valid answer and the fibber sees the same prompt as everyone else.
func (f *FibbingIt) likelyQuestions(
	ctx context.Context, client catalog.Client, players []models.Player, round models.GameRound,
) ([]models.FibbingItQuestion, error) {
	items, err := client.GetRandomQuestions(ctx, FibbingItName, round, "", f.questionsPerRound)
	if err != nil {
		return nil, err
	}

	nicknames := make([]string, 0, len(players))
	for _, player := range players {
		nicknames = append(nicknames, player.Nickname)
	}

	questions := make([]models.FibbingItQuestion, 0, len(items))
	for _, item := range items {
		questions = append(questions, models.FibbingItQuestion{
			FibberQuestion: "",
			Question:       item.Content,
			Answers:        append([]string(nil), nicknames...),
		})
	}
	return questions, nil
}

// sampleTwo picks two distinct elements uniformly at random.
func sampleTwo(values []string) (string, string, error) {
	if len(values) < 2 {
		return "", "", models.NewAppError(models.CodeInvalidGameState,
			"need at least two questions in a group, got %d", len(values))
	}
	first := rand.Intn(len(values))
	second := rand.Intn(len(values) - 1)
	if second >= first {
		second++
	}
	return values[first], values[second], nil
}
