package common

import "fmt"

func RedisKeyPointLeaderBoard(period string) string {
	return fmt.Sprintf("leaderboard:point:%s", period)
}

func RedisKeyOpenGuessRound() string {
	return "guess:open_round"
}
