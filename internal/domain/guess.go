package domain

import (
	"context"
	"errors"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GuessDomain interface {
	GetTodayGuessRound(context.Context, *model.GetTodayGuessRoundRequest) (*model.GetTodayGuessRoundResponse, error)
	SubmitGuess(context.Context, *model.SubmitGuessRequest) (*model.SubmitGuessResponse, error)
	GetMyGuesses(context.Context, *model.GetMyGuessesRequest) (*model.GetMyGuessesResponse, error)
}

type guessDomain struct {
	guessRepo repository.GuessRepository
}

func NewGuessDomain(guessRepo repository.GuessRepository) *guessDomain {
	return &guessDomain{guessRepo: guessRepo}
}

func (d *guessDomain) GetTodayGuessRound(
	ctx context.Context, req *model.GetTodayGuessRoundRequest,
) (*model.GetTodayGuessRoundResponse, error) {
	round, err := d.guessRepo.GetOpenRound(ctx, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "No guess round is open right now")
		}

		xcontext.Logger(ctx).Errorf("Cannot get open guess round: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetTodayGuessRoundResponse{Round: model.ConvertGuessRound(round)}
	if userID := xcontext.RequestUserID(ctx); userID != "" {
		guess, err := d.guessRepo.GetGuess(ctx, round.ID, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get guess: %v", err)
			return nil, errorx.Unknown
		}

		if err == nil {
			myGuess := model.ConvertGuess(guess, resp.Round)
			resp.MyGuess = &myGuess
		}
	}

	return resp, nil
}

func (d *guessDomain) SubmitGuess(
	ctx context.Context, req *model.SubmitGuessRequest,
) (*model.SubmitGuessResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	round, err := d.guessRepo.GetRoundByID(ctx, req.RoundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found guess round")
		}

		xcontext.Logger(ctx).Errorf("Cannot get guess round: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()
	if now.Before(round.StartTime) {
		return nil, errorx.New(errorx.Unavailable, "This round has not opened yet")
	}

	if round.IsSettled || !now.Before(round.EndTime) {
		return nil, errorx.New(errorx.Unavailable, "This round has already closed")
	}

	if req.AmountCents < round.MinCents || req.AmountCents > round.MaxCents {
		return nil, errorx.New(errorx.BadRequest,
			"The guess must be between %d and %d cents", round.MinCents, round.MaxCents)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// One guess per user and round. The check and the insert share the
	// transaction, a racing second submit of the same user loses.
	_, err = d.guessRepo.GetGuess(ctx, round.ID, userID)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "You already submitted a guess for this round")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get guess: %v", err)
		return nil, errorx.Unknown
	}

	guess := &entity.Guess{
		Base:        entity.Base{ID: uuid.NewString()},
		RoundID:     round.ID,
		UserID:      userID,
		AmountCents: req.AmountCents,
	}
	if err := d.guessRepo.CreateGuess(ctx, guess); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create guess: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	return &model.SubmitGuessResponse{
		Guess: model.ConvertGuess(guess, model.ConvertGuessRound(round)),
	}, nil
}

func (d *guessDomain) GetMyGuesses(
	ctx context.Context, req *model.GetMyGuessesRequest,
) (*model.GetMyGuessesResponse, error) {
	limit, err := normalizeLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	userID := xcontext.RequestUserID(ctx)
	guesses, err := d.guessRepo.GetGuessesByUserID(ctx, userID, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get guesses: %v", err)
		return nil, errorx.Unknown
	}

	roundIDs := []string{}
	for _, g := range guesses {
		roundIDs = append(roundIDs, g.RoundID)
	}

	rounds, err := d.guessRepo.GetRoundsByIDs(ctx, roundIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get rounds of guesses: %v", err)
		return nil, errorx.Unknown
	}

	roundMap := map[string]model.GuessRound{}
	for i := range rounds {
		roundMap[rounds[i].ID] = model.ConvertGuessRound(&rounds[i])
	}

	list := []model.Guess{}
	for i := range guesses {
		list = append(list, model.ConvertGuess(&guesses[i], roundMap[guesses[i].RoundID]))
	}

	return &model.GetMyGuessesResponse{Guesses: list}, nil
}
