package cron

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain"
)

// RetryRedemptionsCronJob periodically re-drives redemptions stuck in
// pending. It runs in the worker process next to the kafka subscriber.
type RetryRedemptionsCronJob struct {
	fulfillmentDomain domain.FulfillmentDomain
}

func NewRetryRedemptionsCronJob(fulfillmentDomain domain.FulfillmentDomain) *RetryRedemptionsCronJob {
	return &RetryRedemptionsCronJob{fulfillmentDomain: fulfillmentDomain}
}

func (job *RetryRedemptionsCronJob) Do(ctx context.Context) {
	job.fulfillmentDomain.RetryStuckRedemptions(ctx)
}

func (job *RetryRedemptionsCronJob) RunNow() bool {
	return false
}

func (job *RetryRedemptionsCronJob) Next() time.Time {
	return time.Now().Add(5 * time.Minute)
}
