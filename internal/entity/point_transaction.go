package entity

import (
	"database/sql"
	"time"

	"github.com/BillixOfficial/rewards-backend/pkg/enum"
)

type TransactionType string

var (
	TransactionEarn   = enum.New(TransactionType("earn"))
	TransactionSpend  = enum.New(TransactionType("spend"))
	TransactionAdjust = enum.New(TransactionType("adjust"))
	TransactionExpire = enum.New(TransactionType("expire"))
)

type TransactionSource string

var (
	SourceCheckIn     = enum.New(TransactionSource("check_in"))
	SourceStreakBonus = enum.New(TransactionSource("streak_bonus"))
	SourceGuessRound  = enum.New(TransactionSource("guess_round"))
	SourceBillPayment = enum.New(TransactionSource("bill_payment"))
	SourceRedeem      = enum.New(TransactionSource("redeem"))
	SourceDrawEntry   = enum.New(TransactionSource("draw_entry"))
	SourceDrawPrize   = enum.New(TransactionSource("draw_prize"))
	SourceAdmin       = enum.New(TransactionSource("admin"))
	SourceExpiry      = enum.New(TransactionSource("expiry"))
)

// PointTransaction is the append-only points ledger. Rows are never updated
// or deleted, corrections get their own adjust row.
type PointTransaction struct {
	ID        int64 `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	Type   TransactionType
	Source TransactionSource

	// Amount is always positive, Type carries the direction.
	Amount uint64

	// BalanceAfter snapshots the spendable balance right after this row
	// was applied. It is written in the same database transaction as the
	// profile update.
	BalanceAfter uint64

	// ReferenceID points to the object this transaction came from, for
	// example a redemption or a draw winner.
	ReferenceID sql.NullString

	// IdempotencyKey dedupes partner grants. Internal sources leave it
	// unset.
	IdempotencyKey sql.NullString `gorm:"size:191;index"`
}
