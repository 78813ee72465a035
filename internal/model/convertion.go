package model

import (
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano
const DefaultDateLayout string = "2006-01-02"

func ConvertShortUser(user *entity.User) ShortUser {
	if user == nil {
		return ShortUser{}
	}

	avatars := map[string]string{}
	for size, url := range user.ProfilePictures {
		if s, ok := url.(string); ok {
			avatars[size] = s
		}
	}

	return ShortUser{
		ID:         user.ID,
		Name:       user.Name,
		AvatarURLs: avatars,
	}
}

func ConvertUser(user *entity.User, serviceUsers []entity.OAuth2, includeSensitive bool) User {
	if user == nil {
		return User{}
	}

	serviceMap := map[string]string{}
	for _, u := range serviceUsers {
		serviceMap[u.Service] = u.ServiceUsername
	}

	if !includeSensitive {
		return User{ShortUser: ConvertShortUser(user)}
	}

	return User{
		ShortUser:    ConvertShortUser(user),
		Email:        user.Email.String,
		Role:         string(user.Role),
		ReferralCode: user.ReferralCode,
		Services:     serviceMap,
		IsNewUser:    user.IsNewUser,
	}
}

func ConvertCategory(category *entity.Category) Category {
	if category == nil {
		return Category{}
	}

	return Category{
		ID:        category.ID,
		Name:      category.Name,
		Position:  category.Position,
		CreatedBy: category.CreatedBy,
		CreatedAt: category.CreatedAt.Format(DefaultTimeLayout),
		UpdatedAt: category.UpdatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertRewardItem(
	item *entity.RewardItem, category Category, affordability *Affordability,
) RewardItem {
	if item == nil {
		return RewardItem{}
	}

	if category.ID == "" {
		category = Category{ID: item.CategoryID.String}
	}

	return RewardItem{
		ID:               item.ID,
		Category:         category,
		Variant:          string(item.Variant),
		Name:             item.Name,
		Brand:            item.Brand,
		BrandURL:         item.BrandURL,
		Description:      item.Description,
		LogoURL:          item.LogoURL,
		ImageURL:         item.ImageURL,
		AccentColor:      item.AccentColor,
		Tags:             item.Tags,
		Cost:             item.Cost,
		DollarValueCents: item.DollarValueCents,
		Stock:            item.Stock,
		RedeemedCount:    item.RedeemedCount,
		TrendingScore:    item.TrendingScore,
		MinTier:          string(item.MinTier),
		IsActive:         item.IsActive,
		CreatedAt:        item.CreatedAt.Format(DefaultTimeLayout),
		UpdatedAt:        item.UpdatedAt.Format(DefaultTimeLayout),
		Affordability:    affordability,
	}
}

func ConvertRewardProfile(profile *entity.RewardProfile) RewardProfile {
	if profile == nil {
		return RewardProfile{}
	}

	lastCheckIn := ""
	if !profile.LastCheckInDate.IsZero() {
		lastCheckIn = profile.LastCheckInDate.Format(DefaultDateLayout)
	}

	return RewardProfile{
		UserID:          profile.UserID,
		Points:          profile.Points,
		LifetimePoints:  profile.LifetimePoints,
		Tier:            string(profile.Tier),
		CurrentStreak:   profile.CurrentStreak,
		LongestStreak:   profile.LongestStreak,
		LastCheckInDate: lastCheckIn,
	}
}

func ConvertPointTransaction(tx *entity.PointTransaction) PointTransaction {
	if tx == nil {
		return PointTransaction{}
	}

	return PointTransaction{
		ID:           tx.ID,
		Type:         string(tx.Type),
		Source:       string(tx.Source),
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		ReferenceID:  tx.ReferenceID.String,
		CreatedAt:    tx.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertRedemption(
	redemption *entity.Redemption, user ShortUser, item RewardItem,
) Redemption {
	if redemption == nil {
		return Redemption{}
	}

	if user.ID == "" {
		user = ShortUser{ID: redemption.UserID}
	}

	if item.ID == "" {
		item = RewardItem{ID: redemption.RewardItemID}
	}

	return Redemption{
		ID:            redemption.ID,
		User:          user,
		RewardItem:    item,
		Cost:          redemption.Cost,
		Status:        string(redemption.Status),
		DeliveryEmail: redemption.DeliveryEmail,
		Payload:       redemption.Payload,
		FailureReason: redemption.FailureReason,
		CreatedAt:     redemption.CreatedAt.Format(DefaultTimeLayout),
		UpdatedAt:     redemption.UpdatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertCheckIn(checkIn *entity.CheckIn) CheckIn {
	if checkIn == nil {
		return CheckIn{}
	}

	return CheckIn{
		Date:   checkIn.Date.Format(DefaultDateLayout),
		Points: checkIn.Points,
		Streak: checkIn.Streak,
	}
}

func ConvertTierAward(award *entity.TierAward) TierAward {
	if award == nil {
		return TierAward{}
	}

	return TierAward{
		Tier:        string(award.Tier),
		AwardedAt:   award.AwardedAt.Format(DefaultTimeLayout),
		WasNotified: award.WasNotified,
	}
}

func ConvertRewards(entityRewards []entity.Reward) []Reward {
	modelRewards := []Reward{}
	for _, r := range entityRewards {
		modelRewards = append(modelRewards, Reward{Type: string(r.Type), Data: r.Data})
	}
	return modelRewards
}

func ConvertDrawPrize(prize *entity.DrawPrize) DrawPrize {
	if prize == nil {
		return DrawPrize{}
	}

	return DrawPrize{
		ID:             prize.ID,
		Name:           prize.Name,
		Points:         prize.Points,
		Rewards:        ConvertRewards(prize.Rewards),
		AvailableCount: prize.AvailableCount,
		WonCount:       prize.WonCount,
	}
}

func ConvertDrawEvent(event *entity.DrawEvent, prizes []DrawPrize) DrawEvent {
	if event == nil {
		return DrawEvent{}
	}

	return DrawEvent{
		ID:                event.ID,
		Name:              event.Name,
		StartTime:         event.StartTime.Format(DefaultTimeLayout),
		EndTime:           event.EndTime.Format(DefaultTimeLayout),
		PointsPerEntry:    event.PointsPerEntry,
		MaxEntriesPerUser: event.MaxEntriesPerUser,
		TotalEntries:      event.TotalEntries,
		IsSettled:         event.IsSettled,
		Prizes:            prizes,
	}
}

func ConvertDrawWinner(winner *entity.DrawWinner, user ShortUser, prize DrawPrize) DrawWinner {
	if winner == nil {
		return DrawWinner{}
	}

	if user.ID == "" {
		user = ShortUser{ID: winner.UserID}
	}

	if prize.ID == "" {
		prize = DrawPrize{ID: winner.DrawPrizeID}
	}

	return DrawWinner{
		ID:        winner.ID,
		User:      user,
		Prize:     prize,
		IsClaimed: winner.IsClaimed,
		CreatedAt: winner.CreatedAt.Format(DefaultTimeLayout),
	}
}

// ConvertGuessRound hides the answer unless the round is settled, no matter
// what the caller asks for.
func ConvertGuessRound(round *entity.GuessRound) GuessRound {
	if round == nil {
		return GuessRound{}
	}

	result := GuessRound{
		ID:        round.ID,
		Prompt:    round.Prompt,
		MinCents:  round.MinCents,
		MaxCents:  round.MaxCents,
		StartTime: round.StartTime.Format(DefaultTimeLayout),
		EndTime:   round.EndTime.Format(DefaultTimeLayout),
		IsSettled: round.IsSettled,
	}

	if round.IsSettled {
		result.AnswerCents = round.AnswerCents
	}

	return result
}

// ConvertGuess zeroes the settlement fields while the round is open, so a
// response can never be used to bisect the hidden answer.
func ConvertGuess(guess *entity.Guess, round GuessRound) Guess {
	if guess == nil {
		return Guess{}
	}

	if round.ID == "" {
		round = GuessRound{ID: guess.RoundID}
	}

	result := Guess{
		ID:          guess.ID,
		Round:       round,
		AmountCents: guess.AmountCents,
		CreatedAt:   guess.CreatedAt.Format(DefaultTimeLayout),
	}

	if round.IsSettled {
		result.PercentError = guess.PercentError
		result.AwardedPoints = guess.AwardedPoints
	}

	return result
}

func ConvertPointActivity(activity *entity.PointActivity) PointActivity {
	if activity == nil {
		return PointActivity{}
	}

	return PointActivity{
		ID:        activity.ID,
		Type:      activity.Type,
		Amount:    activity.Amount,
		Title:     activity.Title,
		CreatedAt: activity.CreatedAt.Format(DefaultTimeLayout),
	}
}
