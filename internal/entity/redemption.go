package entity

import "github.com/BillixOfficial/rewards-backend/pkg/enum"

type RedemptionStatus string

var (
	RedemptionPending   = enum.New(RedemptionStatus("pending"))
	RedemptionFulfilled = enum.New(RedemptionStatus("fulfilled"))
	RedemptionFailed    = enum.New(RedemptionStatus("failed"))
	RedemptionCancelled = enum.New(RedemptionStatus("cancelled"))
)

type Redemption struct {
	Base

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	RewardItemID string
	RewardItem   RewardItem `gorm:"foreignKey:RewardItemID"`

	// Cost is a snapshot of the item cost at redemption time.
	Cost   uint64
	Status RedemptionStatus

	// DeliveryEmail is where the fulfillment lands, validated before any
	// points move.
	DeliveryEmail string

	// OrderID is the vendor order, kept as a column so the retry job can
	// poll stuck orders.
	OrderID string

	// Payload holds the fulfillment result, for example the gift card code
	// and claim url.
	Payload Map

	FailureReason string
}
