package model

type GetLeaderBoardRequest struct {
	// Period is either week or month.
	Period string `json:"period"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetLeaderBoardResponse struct {
	LeaderBoard []UserStatistic `json:"leaderboard"`
}
