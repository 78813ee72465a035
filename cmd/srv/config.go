package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BillixOfficial/rewards-backend/config"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/joho/godotenv"
)

func (s *srv) loadConfig() {
	// A local .env file is optional, deployments configure the process
	// environment directly.
	godotenv.Load()

	configs := config.Configs{
		Env:             getEnv("ENV", "local"),
		SnowflakeNodeID: parseInt64(getEnv("SNOWFLAKE_NODE_ID", "1")),
		ApiServer: config.APIServerConfigs{
			ServerConfigs: config.ServerConfigs{
				Host: getEnv("API_HOST", ""),
				Port: getEnv("API_PORT", "8080"),
				Cert: getEnv("API_SERVER_CERT", ""),
				Key:  getEnv("API_SERVER_KEY", ""),
			},
			MaxLimit:     parseInt(getEnv("API_MAX_LIMIT", "50")),
			DefaultLimit: parseInt(getEnv("API_DEFAULT_LIMIT", "10")),
		},
		SearchServer: config.SearchServerConfigs{
			ServerConfigs: config.ServerConfigs{
				Host: getEnv("SEARCH_SERVER_HOST", ""),
				Port: getEnv("SEARCH_SERVER_PORT", "8081"),
			},
			RPCName:  getEnv("SEARCH_RPC_NAME", "indexer"),
			IndexDir: getEnv("SEARCH_INDEX_DIR", "searchindex"),
			Endpoint: getEnv("SEARCH_SERVER_ENDPOINT", "http://localhost:8081"),
		},
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "rewards"),
			User:     getEnv("MYSQL_USER", "rewards"),
			Password: getEnv("MYSQL_PASSWORD", "rewards"),
		},
		ScyllaDB: config.ScyllaDBConfigs{
			Addr:     getEnv("SCYLLA_ADDR", "localhost:9042"),
			KeySpace: getEnv("SCYLLA_KEYSPACE", "rewards"),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr: getEnv("KAFKA_ADDR", "localhost:9092"),
		},
		Session: config.SessionConfigs{
			Secret: getEnv("SESSION_SECRET", "secret"),
			Name:   getEnv("SESSION_NAME", "billix_rewards_session"),
		},
		Auth: config.AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "secret"),
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: parseDuration(getEnv("ACCESS_TOKEN_DURATION", "5m")),
			},
			RefreshToken: config.TokenConfigs{
				Name:       "refresh_token",
				Expiration: parseDuration(getEnv("REFRESH_TOKEN_DURATION", "720h")),
			},
			Google: config.OAuth2Config{
				Name:          "google",
				Issuer:        getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
				ClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
				IDField:       "email",
				UsernameField: "name",
				RedirectURL:   getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/oauth2/callback"),
			},
		},
		Storage: config.S3Configs{
			Region:         getEnv("STORAGE_REGION", "auto"),
			Endpoint:       getEnv("STORAGE_ENDPOINT", "http://localhost:9000"),
			PublicEndpoint: getEnv("STORAGE_PUBLIC_ENDPOINT", "http://localhost:9000"),
			AccessKey:      getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:      getEnv("STORAGE_SECRET_KEY", ""),
			SSLDisabled:    parseBool(getEnv("STORAGE_SSL_DISABLED", "true")),
		},
		File: config.FileConfigs{
			MaxSize: parseInt64(getEnv("MAX_UPLOAD_FILE_SIZE", "2097152")),
		},
		Reward: config.RewardConfigs{
			CheckInBasePoints: parseUint64(getEnv("CHECK_IN_BASE_POINTS", "50")),
			StreakBonusPoints: parseUint64(getEnv("STREAK_BONUS_POINTS", "10")),
			StreakBonusCap:    parseInt(getEnv("STREAK_BONUS_CAP", "6")),
			WeeklyBonusPoints: parseUint64(getEnv("WEEKLY_BONUS_POINTS", "200")),
			PointsExpiration:  parseDuration(getEnv("POINTS_EXPIRATION", "8760h")),
		},
		Guess: config.GuessConfigs{
			Prompts: getEnv("GUESS_PROMPTS",
				"Average monthly electricity bill in Austin,"+
					"Average monthly water bill in Dallas,"+
					"Average monthly internet bill in Houston"),
			MinCents:   parseInt64(getEnv("GUESS_MIN_CENTS", "5000")),
			MaxCents:   parseInt64(getEnv("GUESS_MAX_CENTS", "25000")),
			BasePoints: parseUint64(getEnv("GUESS_BASE_POINTS", "25")),
		},
		Draw: config.DrawConfigs{
			Weekday:           parseWeekday(getEnv("DRAW_WEEKDAY", "Sunday")),
			Hour:              parseInt(getEnv("DRAW_HOUR", "18")),
			PointsPerEntry:    parseUint64(getEnv("DRAW_POINTS_PER_ENTRY", "100")),
			MaxEntriesPerUser: parseInt(getEnv("DRAW_MAX_ENTRIES_PER_USER", "5")),
			PrizePoints:       parseUint64(getEnv("DRAW_PRIZE_POINTS", "5000")),
		},
		GiftCard: config.GiftCardConfigs{
			Endpoint: getEnv("GIFT_CARD_ENDPOINT", "https://api.giftcards.example.com"),
			APIKey:   getEnv("GIFT_CARD_API_KEY", ""),
		},
	}

	s.ctx = xcontext.WithConfigs(s.ctx, configs)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func parseInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}

	return result
}

func parseInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		panic(err)
	}

	return result
}

func parseUint64(value string) uint64 {
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		panic(err)
	}

	return result
}

func parseBool(value string) bool {
	result, err := strconv.ParseBool(value)
	if err != nil {
		panic(err)
	}

	return result
}

func parseDuration(value string) time.Duration {
	result, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}

	return result
}

func parseWeekday(value string) time.Weekday {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(day.String(), value) {
			return day
		}
	}

	panic(fmt.Sprintf("invalid weekday %q", value))
}
