package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/common"
	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/api/giftcard"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/fatih/structs"
	"gorm.io/gorm"
)

// stuckPendingAge is how long a redemption may sit in pending before the
// retry sweep picks it up again.
const stuckPendingAge = 10 * time.Minute

// giftCardPayload is stored on the redemption once the vendor fulfills the
// order. The claim url and code are what the client renders to the user.
type giftCardPayload struct {
	OrderID  string `structs:"order_id"`
	Code     string `structs:"code"`
	ClaimURL string `structs:"claim_url"`
}

// FulfillmentDomain runs in the worker process. It turns pending redemptions
// into vendor gift card orders and reports the outcome back over kafka.
type FulfillmentDomain interface {
	HandleRedemptionCreated(ctx context.Context, pack *pubsub.Pack, t time.Time)
	RetryStuckRedemptions(ctx context.Context)
}

type fulfillmentDomain struct {
	redemptionRepo       repository.RedemptionRepository
	rewardItemRepo       repository.RewardItemRepository
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	leaderboard          statistic.Leaderboard
	giftCardEndpoint     giftcard.IEndpoint
	publisher            pubsub.Publisher
}

func NewFulfillmentDomain(
	redemptionRepo repository.RedemptionRepository,
	rewardItemRepo repository.RewardItemRepository,
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
	leaderboard statistic.Leaderboard,
	giftCardEndpoint giftcard.IEndpoint,
	publisher pubsub.Publisher,
) *fulfillmentDomain {
	return &fulfillmentDomain{
		redemptionRepo:       redemptionRepo,
		rewardItemRepo:       rewardItemRepo,
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
		leaderboard:          leaderboard,
		giftCardEndpoint:     giftCardEndpoint,
		publisher:            publisher,
	}
}

func (d *fulfillmentDomain) HandleRedemptionCreated(
	ctx context.Context, pack *pubsub.Pack, t time.Time,
) {
	var msg model.RedemptionCreatedMessage
	if err := json.Unmarshal(pack.Msg, &msg); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unmarshal redemption created message: %v", err)
		return
	}

	redemption, err := d.redemptionRepo.GetByID(ctx, msg.RedemptionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get redemption %s: %v", msg.RedemptionID, err)
		return
	}

	d.fulfill(ctx, redemption)
}

// RetryStuckRedemptions sweeps redemptions sitting in pending for too long.
// It covers lost messages, vendor rate limits and orders the vendor fulfills
// asynchronously.
func (d *fulfillmentDomain) RetryStuckRedemptions(ctx context.Context) {
	stuck, err := d.redemptionRepo.GetStuckPending(ctx, time.Now().Add(-stuckPendingAge))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get stuck redemptions: %v", err)
		return
	}

	for i := range stuck {
		d.fulfill(ctx, &stuck[i])
	}

	if len(stuck) > 0 {
		xcontext.Logger(ctx).Infof("Retried %d stuck redemptions", len(stuck))
	}
}

// fulfill drives one redemption towards a terminal status. Calling it again
// on the same redemption is safe, the vendor dedupes orders by redemption id
// and the status transitions guard everything else.
func (d *fulfillmentDomain) fulfill(ctx context.Context, redemption *entity.Redemption) {
	if redemption.Status != entity.RedemptionPending {
		return
	}

	// When an order exists already, only its outcome is missing.
	if redemption.OrderID != "" {
		d.poll(ctx, redemption)
		return
	}

	item, err := d.rewardItemRepo.GetByID(ctx, redemption.RewardItemID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward item of redemption %s: %v", redemption.ID, err)
		return
	}

	// Only gift cards leave the system. The other variants are booked right
	// here and handed to the main backend through the result message.
	if item.Variant != entity.VariantGiftCard {
		d.complete(ctx, redemption, entity.Map{"fulfilled_by": string(item.Variant)})
		return
	}

	order, err := d.giftCardEndpoint.CreateOrder(ctx, giftcard.OrderRequest{
		ExternalID:     redemption.ID,
		SKU:            item.SKU,
		Quantity:       1,
		RecipientEmail: redemption.DeliveryEmail,
	})
	if err != nil {
		if resetAt, ok := giftcard.IsRateLimit(err); ok {
			// The retry sweep picks the redemption up after the reset.
			xcontext.Logger(ctx).Warnf("The gift card vendor limited us until %s", resetAt)
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot create gift card order of %s: %v", redemption.ID, err)
		d.fail(ctx, redemption, "The gift card vendor rejected the order")
		return
	}

	err = d.redemptionRepo.UpdateByID(ctx, redemption.ID, map[string]any{"order_id": order.ID})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save order id of %s: %v", redemption.ID, err)
		return
	}

	redemption.OrderID = order.ID
	d.applyOrder(ctx, redemption, order)
}

func (d *fulfillmentDomain) poll(ctx context.Context, redemption *entity.Redemption) {
	order, err := d.giftCardEndpoint.GetOrder(ctx, redemption.OrderID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get order %s of redemption %s: %v",
			redemption.OrderID, redemption.ID, err)
		return
	}

	d.applyOrder(ctx, redemption, order)
}

func (d *fulfillmentDomain) applyOrder(
	ctx context.Context, redemption *entity.Redemption, order giftcard.Order,
) {
	switch order.Status {
	case giftcard.OrderStatusFulfilled:
		d.complete(ctx, redemption, structs.Map(giftCardPayload{
			OrderID:  order.ID,
			Code:     order.Code,
			ClaimURL: order.ClaimURL,
		}))

	case giftcard.OrderStatusFailed:
		d.fail(ctx, redemption, "The gift card vendor could not fulfill the order")

	default:
		// Still pending at the vendor, the retry sweep polls it later.
	}
}

func (d *fulfillmentDomain) complete(
	ctx context.Context, redemption *entity.Redemption, payload entity.Map,
) {
	err := d.redemptionRepo.TransitStatus(ctx, redemption.ID,
		entity.RedemptionPending, entity.RedemptionFulfilled)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Debugf("Redemption %s already left pending", redemption.ID)
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot fulfill redemption %s: %v", redemption.ID, err)
		return
	}

	err = d.redemptionRepo.UpdateByID(ctx, redemption.ID, map[string]any{"payload": payload})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save payload of %s: %v", redemption.ID, err)
	}

	d.publishResult(ctx, redemption, entity.RedemptionFulfilled)
}

// fail refunds the cost and parks the redemption in the failed status. The
// refund is an adjust row, so the ledger aggregations treat it like the spend
// never happened.
func (d *fulfillmentDomain) fail(
	ctx context.Context, redemption *entity.Redemption, reason string,
) {
	common.PromCounters[common.RedemptionFailure].WithLabelValues("fulfillment").Inc()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err := d.redemptionRepo.TransitStatus(ctx, redemption.ID,
		entity.RedemptionPending, entity.RedemptionFailed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Debugf("Redemption %s already left pending", redemption.ID)
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot fail redemption %s: %v", redemption.ID, err)
		return
	}

	err = d.redemptionRepo.UpdateByID(ctx, redemption.ID, map[string]any{"failure_reason": reason})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save failure reason of %s: %v", redemption.ID, err)
		return
	}

	// Give the reserved unit back unless the stock is unlimited.
	item, err := d.rewardItemRepo.GetByID(ctx, redemption.RewardItemID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward item of redemption %s: %v", redemption.ID, err)
	} else if item.Stock >= 0 {
		if err := d.rewardItemRepo.IncreaseStock(ctx, item.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot restore stock of %s: %v", item.ID, err)
		}
	}

	var refunded uint64
	if redemption.Cost > 0 {
		err := d.rewardProfileRepo.IncreasePoints(ctx, redemption.UserID, redemption.Cost)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot refund points of %s: %v", redemption.ID, err)
			return
		}

		after, err := d.rewardProfileRepo.Get(ctx, redemption.UserID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get reward profile after refund: %v", err)
			return
		}

		err = d.pointTransactionRepo.Create(ctx, &entity.PointTransaction{
			ID:           xcontext.SnowFlake(ctx).Generate().Int64(),
			UserID:       redemption.UserID,
			Type:         entity.TransactionAdjust,
			Source:       entity.SourceRedeem,
			Amount:       redemption.Cost,
			BalanceAfter: after.Points,
			ReferenceID:  sql.NullString{Valid: true, String: redemption.ID},
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create refund transaction: %v", err)
			return
		}

		refunded = redemption.Cost
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	if refunded > 0 {
		// Adjust rows count as earnings when a leaderboard is rebuilt from
		// the ledger, the incremental change has to match.
		err := d.leaderboard.ChangePointLeaderboard(
			ctx, int64(refunded), time.Now(), redemption.UserID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update leaderboard: %v", err)
		}

		activityID := xcontext.SnowFlake(ctx).Generate().Int64()
		err = d.pointActivityRepo.Create(ctx, &entity.PointActivity{
			ID:        activityID,
			UserID:    redemption.UserID,
			Bucket:    numberutil.CreateBucket(activityID),
			Type:      string(entity.SourceRedeem),
			Amount:    refunded,
			Title:     "Points refunded for a failed redemption",
			CreatedAt: time.Now(),
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
		}
	}

	d.publishResult(ctx, redemption, entity.RedemptionFailed)
}

func (d *fulfillmentDomain) publishResult(
	ctx context.Context, redemption *entity.Redemption, status entity.RedemptionStatus,
) {
	msg, err := json.Marshal(model.RedemptionResultMessage{
		RedemptionID: redemption.ID,
		UserID:       redemption.UserID,
		Status:       string(status),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal redemption result: %v", err)
		return
	}

	err = d.publisher.Publish(ctx, model.RedemptionFulfilledTopic,
		&pubsub.Pack{Key: []byte(redemption.UserID), Msg: msg})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot publish redemption result: %v", err)
	}
}
