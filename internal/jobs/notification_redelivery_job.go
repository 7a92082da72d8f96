package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const (
	RedeliverySent    = "sent"
	RedeliveryPending = "pending"
	RedeliveryFailed  = "failed"
	RedeliveryError   = "error"
)

type RedeliveryOptions struct {
	// Schedule is a cron expression with a seconds field, or a descriptor such as "@every 30s".
	Schedule string
	// GracePeriod keeps fresh records out of the scan while their first delivery is in flight.
	GracePeriod time.Duration
	// MaxPendingAge is how long a record may stay Pending before it is marked Failed.
	// Age counts from creation or from the last admin resend.
	MaxPendingAge time.Duration
	BatchSize     int
	Clock         func() time.Time
}

func (o RedeliveryOptions) withDefaults() RedeliveryOptions {
	if o.Schedule == "" {
		o.Schedule = "*/30 * * * * *"
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 10 * time.Second
	}
	if o.MaxPendingAge <= 0 {
		o.MaxPendingAge = 24 * time.Hour
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// NotificationRedeliveryJob pushes Pending notifications to their recipients again.
type NotificationRedeliveryJob struct {
	store       ports.NotificationStore
	redeliverer ports.NotificationRedeliverer
	metrics     *metrics.Metrics
	cron        *cron.Cron
	logger      *slog.Logger
	opts        RedeliveryOptions
}

func NewNotificationRedeliveryJob(
	store ports.NotificationStore,
	redeliverer ports.NotificationRedeliverer,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts RedeliveryOptions,
) (*NotificationRedeliveryJob, error) {
	if store == nil {
		return nil, errors.New("notification store is required")
	}
	if redeliverer == nil {
		return nil, errors.New("redeliverer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationRedeliveryJob{
		store:       store,
		redeliverer: redeliverer,
		metrics:     m,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger.With("component", "notification_redelivery_job"),
		opts:   opts.withDefaults(),
	}, nil
}

func (j *NotificationRedeliveryJob) Name() string {
	return "notification redelivery job"
}

// Start schedules Run according to the configured schedule.
func (j *NotificationRedeliveryJob) Start() error {
	_, err := j.cron.AddFunc(j.opts.Schedule, func() {
		j.Run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Notification redelivery job started", "schedule", j.opts.Schedule)
	return nil
}

// Stop stops the schedule and waits for a running execution to finish.
func (j *NotificationRedeliveryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Notification redelivery job stopped")
}

// Run processes one batch of Pending records that have waited longer than the grace period.
// Records nobody accepted are marked as attempted, which moves them behind the rest of the backlog.
func (j *NotificationRedeliveryJob) Run(ctx context.Context) {
	now := j.opts.Clock()

	pending, err := j.store.GetPending(ctx, now.Add(-j.opts.GracePeriod), j.opts.BatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to load pending notifications", "error", err)
		return
	}

	for _, n := range pending {
		if ctx.Err() != nil {
			return
		}
		j.metrics.Redelivery(j.redeliver(ctx, n, now))
	}
}

func (j *NotificationRedeliveryJob) redeliver(ctx context.Context, n *notification.Notification, now time.Time) string {
	accepted, err := j.redeliverer.Redeliver(ctx, n)
	if err != nil {
		j.logger.WarnContext(ctx, "Notification redelivery failed",
			"notification_id", n.ID().String(),
			"recipient_id", n.RecipientID().String(),
			"error", err,
		)
		j.recordAttempt(ctx, n)
		return RedeliveryError
	}
	if accepted {
		return RedeliverySent
	}

	if now.Sub(n.PendingSince()) < j.opts.MaxPendingAge {
		if !j.recordAttempt(ctx, n) {
			return RedeliveryError
		}
		return RedeliveryPending
	}

	if _, err = j.store.MarkFailed(ctx, n.ID()); err != nil {
		j.logger.ErrorContext(ctx, "Failed to mark notification failed",
			"notification_id", n.ID().String(),
			"error", err,
		)
		return RedeliveryError
	}
	j.logger.InfoContext(ctx, "Notification gave up after max pending age",
		"notification_id", n.ID().String(),
		"recipient_id", n.RecipientID().String(),
		"pending_since", n.PendingSince(),
		"attempts", n.Attempts()+1,
	)
	return RedeliveryFailed
}

func (j *NotificationRedeliveryJob) recordAttempt(ctx context.Context, n *notification.Notification) bool {
	if _, err := j.store.RecordAttempt(ctx, n.ID()); err != nil {
		j.logger.ErrorContext(ctx, "Failed to record redelivery attempt",
			"notification_id", n.ID().String(),
			"error", err,
		)
		return false
	}
	return true
}
