package model

type ShortUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// AvatarURLs maps a size ("512x512") to its public url.
	AvatarURLs map[string]string `json:"avatar_urls"`
}

type User struct {
	ShortUser

	Email        string            `json:"email,omitempty"`
	Role         string            `json:"role,omitempty"`
	ReferralCode string            `json:"referral_code,omitempty"`
	Services     map[string]string `json:"services,omitempty"`
	IsNewUser    bool              `json:"is_new_user,omitempty"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Affordability is the single server-side answer to "can I afford this". The
// app renders it everywhere instead of re-deriving the rule.
type Affordability struct {
	CanAfford    bool    `json:"can_afford"`
	PointsNeeded int64   `json:"points_needed"`
	Progress     float64 `json:"progress"`
}

type RewardItem struct {
	ID               string   `json:"id"`
	Category         Category `json:"category"`
	Variant          string   `json:"variant"`
	Name             string   `json:"name"`
	Brand            string   `json:"brand"`
	BrandURL         string   `json:"brand_url"`
	Description      string   `json:"description"`
	LogoURL          string   `json:"logo_url"`
	ImageURL         string   `json:"image_url"`
	AccentColor      string   `json:"accent_color"`
	Tags             []string `json:"tags"`
	Cost             uint64   `json:"cost"`
	DollarValueCents uint64   `json:"dollar_value_cents"`
	Stock            int      `json:"stock"`
	RedeemedCount    int      `json:"redeemed_count"`
	TrendingScore    float64  `json:"trending_score"`
	MinTier          string   `json:"min_tier"`
	IsActive         bool     `json:"is_active"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`

	// Affordability is filled against the balance of the caller, only on
	// authenticated catalog endpoints.
	Affordability *Affordability `json:"affordability,omitempty"`
}

type RewardProfile struct {
	UserID          string `json:"user_id"`
	Points          uint64 `json:"points"`
	LifetimePoints  uint64 `json:"lifetime_points"`
	Tier            string `json:"tier"`
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	LastCheckInDate string `json:"last_check_in_date"`
}

type PointTransaction struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	Source       string `json:"source"`
	Amount       uint64 `json:"amount"`
	BalanceAfter uint64 `json:"balance_after"`
	ReferenceID  string `json:"reference_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type Redemption struct {
	ID            string         `json:"id"`
	User          ShortUser      `json:"user"`
	RewardItem    RewardItem     `json:"reward_item"`
	Cost          uint64         `json:"cost"`
	Status        string         `json:"status"`
	DeliveryEmail string         `json:"delivery_email"`
	Payload       map[string]any `json:"payload,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

type CheckIn struct {
	Date   string `json:"date"`
	Points uint64 `json:"points"`
	Streak int    `json:"streak"`
}

type TierAward struct {
	Tier        string `json:"tier"`
	AwardedAt   string `json:"awarded_at"`
	WasNotified bool   `json:"was_notified"`
}

// TierProgress is the three-state answer of the tier track. The top tier has
// no next tier and reports a full progress.
type TierProgress struct {
	Tier            string  `json:"tier"`
	HasNext         bool    `json:"has_next"`
	NextTier        string  `json:"next_tier,omitempty"`
	Progress        float64 `json:"progress"`
	PointsRemaining int64   `json:"points_remaining"`
}

type Reward struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type DrawEvent struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	StartTime         string      `json:"start_time"`
	EndTime           string      `json:"end_time"`
	PointsPerEntry    uint64      `json:"points_per_entry"`
	MaxEntriesPerUser int         `json:"max_entries_per_user"`
	TotalEntries      int         `json:"total_entries"`
	IsSettled         bool        `json:"is_settled"`
	Prizes            []DrawPrize `json:"prizes,omitempty"`
}

type DrawPrize struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Points         uint64   `json:"points"`
	Rewards        []Reward `json:"rewards"`
	AvailableCount int      `json:"available_count"`
	WonCount       int      `json:"won_count"`
}

type DrawWinner struct {
	ID        string    `json:"id"`
	User      ShortUser `json:"user"`
	Prize     DrawPrize `json:"prize"`
	IsClaimed bool      `json:"is_claimed"`
	CreatedAt string    `json:"created_at"`
}

// GuessRound never carries the answer while the round is open. AnswerCents is
// filled after settlement only.
type GuessRound struct {
	ID          string `json:"id"`
	Prompt      string `json:"prompt"`
	MinCents    int64  `json:"min_cents"`
	MaxCents    int64  `json:"max_cents"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsSettled   bool   `json:"is_settled"`
	AnswerCents int64  `json:"answer_cents,omitempty"`
}

type Guess struct {
	ID            string     `json:"id"`
	Round         GuessRound `json:"round"`
	AmountCents   int64      `json:"amount_cents"`
	PercentError  float64    `json:"percent_error,omitempty"`
	AwardedPoints uint64     `json:"awarded_points,omitempty"`
	CreatedAt     string     `json:"created_at"`
}

type PointActivity struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Amount    uint64 `json:"amount"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

type UserStatistic struct {
	User        ShortUser `json:"user"`
	Points      uint64    `json:"points"`
	PrevRank    int       `json:"prev_rank"`
	CurrentRank int       `json:"current_rank"`
}
