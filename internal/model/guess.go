package model

type GetTodayGuessRoundRequest struct{}

type GetTodayGuessRoundResponse struct {
	Round GuessRound `json:"round"`

	// MyGuess is nil until the caller has submitted one.
	MyGuess *Guess `json:"my_guess,omitempty"`
}

type SubmitGuessRequest struct {
	RoundID     string `json:"round_id"`
	AmountCents int64  `json:"amount_cents"`
}

type SubmitGuessResponse struct {
	Guess Guess `json:"guess"`
}

type GetMyGuessesRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetMyGuessesResponse struct {
	Guesses []Guess `json:"guesses"`
}
