package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/config"
	"github.com/noah-isme/bureau-roster-api/pkg/jobs"
)

const pushJobType = "notification.push"

// PushDispatcher delivers notifications to a webhook through a background
// queue. Publish never blocks; a full queue drops the delivery.
type PushDispatcher struct {
	queue   *jobs.Queue
	client  *http.Client
	url     string
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPushDispatcher builds a dispatcher. It returns nil when push delivery is
// disabled or no webhook is configured.
func NewPushDispatcher(cfg config.NotificationConfig, metrics *MetricsService, logger *zap.Logger) *PushDispatcher {
	if !cfg.PushEnabled || strings.TrimSpace(cfg.WebhookURL) == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &PushDispatcher{
		client:  &http.Client{Timeout: timeout},
		url:     cfg.WebhookURL,
		metrics: metrics,
		logger:  logger,
	}
	d.queue = jobs.NewQueue("notification-push", d.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: time.Second,
		Logger:     logger,
	})
	return d
}

// Start launches the delivery workers.
func (d *PushDispatcher) Start(ctx context.Context) {
	if d == nil {
		return
	}
	d.queue.Start(ctx)
}

// Stop drains nothing and waits for in-flight deliveries to stop.
func (d *PushDispatcher) Stop() {
	if d == nil {
		return
	}
	d.queue.Stop()
}

// Publish enqueues one delivery per notification.
func (d *PushDispatcher) Publish(notifications ...*models.Notification) {
	if d == nil {
		return
	}
	for _, n := range notifications {
		if n == nil {
			continue
		}
		if err := d.queue.Offer(jobs.Job{ID: n.ID, Type: pushJobType, Payload: *n}); err != nil {
			d.metrics.RecordPush("dropped")
			d.logger.Warn("notification push dropped", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
}

type pushPayload struct {
	Event        string              `json:"event"`
	Notification models.Notification `json:"notification"`
}

func (d *PushDispatcher) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		d.logger.Warn("unexpected push payload", zap.String("job_id", job.ID))
		return nil
	}
	body, err := json.Marshal(pushPayload{Event: "notification.created", Notification: notification})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-ID", notification.ID)

	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.RecordPush("error")
		return fmt.Errorf("push notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		d.metrics.RecordPush("error")
		return fmt.Errorf("push notification: webhook responded %d", resp.StatusCode)
	}
	d.metrics.RecordPush("delivered")
	return nil
}
