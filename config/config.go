package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	// SnowflakeNodeID tells snowflake ids minted by this instance apart from
	// the ones minted by other instances. Give every instance its own value.
	SnowflakeNodeID int64

	ApiServer    APIServerConfigs
	SearchServer SearchServerConfigs
	Database     DatabaseConfigs
	ScyllaDB     ScyllaDBConfigs
	Redis        RedisConfigs
	Kafka        KafkaConfigs
	Session      SessionConfigs
	Auth         AuthConfigs
	Storage      S3Configs
	File         FileConfigs
	Reward       RewardConfigs
	Guess        GuessConfigs
	Draw         DrawConfigs
	GiftCard     GiftCardConfigs
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type APIServerConfigs struct {
	ServerConfigs
	MaxLimit     int
	DefaultLimit int
}

type SearchServerConfigs struct {
	ServerConfigs
	RPCName  string
	IndexDir string

	// Endpoint is the address the api server dials to reach the search
	// service.
	Endpoint string
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ScyllaDBConfigs struct {
	Addr     string
	KeySpace string
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}

type SessionConfigs struct {
	Secret string
	Name   string
}

type AuthConfigs struct {
	TokenSecret  string
	AccessToken  TokenConfigs
	RefreshToken TokenConfigs

	Google OAuth2Config
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type OAuth2Config struct {
	Name          string
	Issuer        string
	ClientID      string
	ClientSecret  string
	IDField       string
	UsernameField string

	// RedirectURL is the callback registered with the provider, only used by
	// the browser login flow. The mobile app runs its own flow and calls
	// verify directly.
	RedirectURL string
}

type S3Configs struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	SSLDisabled    bool
}

type FileConfigs struct {
	MaxSize int64
}

type RewardConfigs struct {
	// CheckInBasePoints is the number of points granted for a daily
	// check-in before any streak bonus.
	CheckInBasePoints uint64

	// StreakBonusPoints is granted once per consecutive day of the current
	// streak, capped at StreakBonusCap days.
	StreakBonusPoints uint64
	StreakBonusCap    int

	// WeeklyBonusPoints is granted on top of the daily grant every seventh
	// consecutive day.
	WeeklyBonusPoints uint64

	// PointsExpiration is how long earned points stay spendable.
	PointsExpiration time.Duration
}

type GuessConfigs struct {
	// Prompts is a comma separated list of bill descriptions the daily
	// round rotates through.
	Prompts string

	// MinCents and MaxCents bound the generated answer.
	MinCents int64
	MaxCents int64

	// BasePoints is the payout of the widest reward band. Narrower bands
	// pay a multiple of it.
	BasePoints uint64
}

type DrawConfigs struct {
	// Weekday and Hour place the weekly draw, used for the countdown when
	// no event is scheduled yet.
	Weekday time.Weekday
	Hour    int

	// The remaining fields shape the event the cron seeds on a fresh
	// deployment. Admin created events carry their own values.
	PointsPerEntry    uint64
	MaxEntriesPerUser int
	PrizePoints       uint64
}

type GiftCardConfigs struct {
	Endpoint string
	APIKey   string
}
