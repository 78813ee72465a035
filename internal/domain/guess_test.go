package domain

import (
	"context"
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sampleGuessRound(t *testing.T, ctx context.Context, init entity.GuessRound) entity.GuessRound {
	t.Helper()

	round := entity.GuessRound{
		Base:        entity.Base{ID: uuid.NewString()},
		Prompt:      "Average electricity bill in Austin",
		AnswerCents: 14000,
		MinCents:    5000,
		MaxCents:    25000,
		StartTime:   time.Now().Add(-time.Hour),
		EndTime:     time.Now().Add(time.Hour),
	}

	if init.StartTime != (time.Time{}) {
		round.StartTime = init.StartTime
	}

	if init.EndTime != (time.Time{}) {
		round.EndTime = init.EndTime
	}

	require.NoError(t, repository.NewGuessRepository().CreateRound(ctx, &round))
	return round
}

func Test_guessDomain_SubmitGuess(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	round := sampleGuessRound(t, ctx, entity.GuessRound{})
	guessDomain := NewGuessDomain(repository.NewGuessRepository())
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Submit successfully. The open round never reveals the settlement
	// fields.
	resp, err := guessDomain.SubmitGuess(ctx, &model.SubmitGuessRequest{
		RoundID:     round.ID,
		AmountCents: 13000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(13000), resp.Guess.AmountCents)
	require.Equal(t, float64(0), resp.Guess.PercentError)
	require.Equal(t, uint64(0), resp.Guess.AwardedPoints)
	require.Equal(t, int64(0), resp.Guess.Round.AnswerCents)

	// One guess per round.
	_, err = guessDomain.SubmitGuess(ctx, &model.SubmitGuessRequest{
		RoundID:     round.ID,
		AmountCents: 14000,
	})
	require.Error(t, err)
	require.Equal(t, "You already submitted a guess for this round", err.Error())

	// Out of bounds guesses never reach the table.
	other, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	otherCtx := testutil.MockContextWithUserID(ctx, other.ID)
	_, err = guessDomain.SubmitGuess(otherCtx, &model.SubmitGuessRequest{
		RoundID:     round.ID,
		AmountCents: 100,
	})
	require.Error(t, err)
	require.Equal(t, "The guess must be between 5000 and 25000 cents", err.Error())
}

func Test_guessDomain_SubmitGuess_ClosedRound(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	guessDomain := NewGuessDomain(repository.NewGuessRepository())
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	past := sampleGuessRound(t, ctx, entity.GuessRound{
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	})
	_, err = guessDomain.SubmitGuess(ctx, &model.SubmitGuessRequest{
		RoundID:     past.ID,
		AmountCents: 13000,
	})
	require.Error(t, err)
	require.Equal(t, "This round has already closed", err.Error())

	future := sampleGuessRound(t, ctx, entity.GuessRound{
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(2 * time.Hour),
	})
	_, err = guessDomain.SubmitGuess(ctx, &model.SubmitGuessRequest{
		RoundID:     future.ID,
		AmountCents: 13000,
	})
	require.Error(t, err)
	require.Equal(t, "This round has not opened yet", err.Error())
}

func Test_guessDomain_GetTodayGuessRound(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	guessDomain := NewGuessDomain(repository.NewGuessRepository())

	// No round is open yet.
	_, err = guessDomain.GetTodayGuessRound(ctx, &model.GetTodayGuessRoundRequest{})
	require.Error(t, err)
	require.Equal(t, "No guess round is open right now", err.Error())

	round := sampleGuessRound(t, ctx, entity.GuessRound{})

	// An anonymous caller gets the round without a guess and without the
	// answer.
	resp, err := guessDomain.GetTodayGuessRound(ctx, &model.GetTodayGuessRoundRequest{})
	require.NoError(t, err)
	require.Equal(t, round.ID, resp.Round.ID)
	require.Equal(t, int64(0), resp.Round.AnswerCents)
	require.Nil(t, resp.MyGuess)

	// A signed in caller who guessed sees their guess.
	userCtx := testutil.MockContextWithUserID(ctx, user.ID)
	_, err = guessDomain.SubmitGuess(userCtx, &model.SubmitGuessRequest{
		RoundID:     round.ID,
		AmountCents: 12000,
	})
	require.NoError(t, err)

	resp, err = guessDomain.GetTodayGuessRound(userCtx, &model.GetTodayGuessRoundRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.MyGuess)
	require.Equal(t, int64(12000), resp.MyGuess.AmountCents)
}

func Test_guessDomain_GetMyGuesses(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	guessRepo := repository.NewGuessRepository()
	round := sampleGuessRound(t, ctx, entity.GuessRound{})
	guessDomain := NewGuessDomain(guessRepo)
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	_, err = guessDomain.SubmitGuess(ctx, &model.SubmitGuessRequest{
		RoundID:     round.ID,
		AmountCents: 9000,
	})
	require.NoError(t, err)

	// While the round is open the outcome fields stay hidden.
	resp, err := guessDomain.GetMyGuesses(ctx, &model.GetMyGuessesRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Guesses, 1)
	require.Equal(t, round.ID, resp.Guesses[0].Round.ID)
	require.Equal(t, uint64(0), resp.Guesses[0].AwardedPoints)
	require.Equal(t, int64(0), resp.Guesses[0].Round.AnswerCents)

	// Settlement reveals the answer and the outcome.
	guess, err := guessRepo.GetGuess(ctx, round.ID, user.ID)
	require.NoError(t, err)
	require.NoError(t, guessRepo.UpdateGuessByID(ctx, guess.ID, map[string]any{
		"percent_error":  5.0,
		"awarded_points": 50,
	}))
	require.NoError(t, guessRepo.CheckAndSettleRound(ctx, round.ID))

	resp, err = guessDomain.GetMyGuesses(ctx, &model.GetMyGuessesRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Guesses, 1)
	require.True(t, resp.Guesses[0].Round.IsSettled)
	require.Equal(t, int64(14000), resp.Guesses[0].Round.AnswerCents)
	require.Equal(t, uint64(50), resp.Guesses[0].AwardedPoints)
	require.InDelta(t, 5.0, resp.Guesses[0].PercentError, 1e-9)
}
