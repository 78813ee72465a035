package entity

import (
	"database/sql"

	"github.com/BillixOfficial/rewards-backend/pkg/enum"
)

type RewardItemVariant string

var (
	VariantGiftCard      = enum.New(RewardItemVariant("gift_card"))
	VariantBillCredit    = enum.New(RewardItemVariant("bill_credit"))
	VariantDonation      = enum.New(RewardItemVariant("donation"))
	VariantDrawEntry     = enum.New(RewardItemVariant("draw_entry"))
	VariantCustomization = enum.New(RewardItemVariant("customization"))
)

type RewardItem struct {
	Base

	CategoryID sql.NullString
	Category   Category `gorm:"foreignKey:CategoryID"`

	Variant     RewardItemVariant
	Name        string
	Brand       string
	BrandURL    string
	Description string
	LogoURL     string
	ImageURL    string
	AccentColor string
	Tags        Array[string]

	// SKU identifies the product at the gift card vendor.
	SKU  string
	Cost uint64

	// DollarValueCents is the cash face value of the reward. Zero when the
	// reward has none.
	DollarValueCents uint64

	// Stock is the remaining number of redemptions. A negative stock means
	// unlimited.
	Stock         int
	RedeemedCount int

	// TrendingScore is recomputed by a cron job from recent redemptions.
	TrendingScore float64

	MinTier  Tier
	IsActive bool
}
