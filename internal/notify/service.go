package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymledger/internal/logger"
	"gymledger/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "receipts"
	failedQueueKey = "receipts:failed"

	maxTries = 3
)

// ReceiptJob is one queued payment receipt.
type ReceiptJob struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Amount  string    `json:"amount"`
	Due     string    `json:"due"`
	PaidAt  time.Time `json:"paidAt"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Mailer delivers a rendered message.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service queues receipts in Redis and drains the queue through a Mailer.
type Service struct {
	redis      *redis.Client
	mailer     Mailer
	gymName    string
	pollWait   time.Duration
	retryDelay time.Duration
}

func New(rdb *redis.Client, mailer Mailer, gymName string) *Service {
	return &Service{
		redis:      rdb,
		mailer:     mailer,
		gymName:    gymName,
		pollWait:   2 * time.Second,
		retryDelay: 5 * time.Second,
	}
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (s *Service) SendPaymentReceipt(ctx context.Context, email, name, amount, due string, when time.Time) error {
	job := ReceiptJob{
		To:      email,
		Name:    name,
		Amount:  amount,
		Due:     due,
		PaidAt:  when,
		Created: time.Now(),
	}
	return s.enqueue(ctx, queueKey, job)
}

func (s *Service) enqueue(ctx context.Context, key string, job ReceiptJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal receipt job: %w", err)
	}

	if err := s.redis.LPush(ctx, key, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue receipt to %s: %v", job.To, err)
		return err
	}

	logger.Debugf("Receipt queued for %s", job.To)
	return nil
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Receipt worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Receipt worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, s.pollWait, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.WithError(err).Warn("receipt queue poll failed")
			s.sleep(ctx, s.pollWait)
		}
		return
	}

	var job ReceiptJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad receipt data: %v", err)
		return
	}

	job.Tries++
	subject, body := renderReceipt(s.gymName, job)
	if err := s.mailer.Send(job.To, subject, body); err != nil {
		logger.Errorf("Failed to send receipt to %s (attempt %d): %v", job.To, job.Tries, err)

		if job.Tries < maxTries {
			metrics.RecordReceipt("retry")
			s.sleep(ctx, s.retryDelay)
			if err := s.enqueue(context.WithoutCancel(ctx), queueKey, job); err != nil {
				logger.Errorf("Receipt to %s lost: %v", job.To, err)
			}
			return
		}

		metrics.RecordReceipt("failed")
		s.saveFailed(ctx, job, err)
		return
	}

	metrics.RecordReceipt("success")
	logger.Infof("Receipt sent to %s", job.To)
}

func (s *Service) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Service) saveFailed(ctx context.Context, job ReceiptJob, sendErr error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": sendErr.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	if err := s.redis.LPush(context.WithoutCancel(ctx), failedQueueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to park receipt for %s: %v", job.To, err)
		return
	}
	logger.Errorf("Receipt moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.ReceiptQueueLength.Set(float64(length))
	return length
}

func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func renderReceipt(gymName string, job ReceiptJob) (subject, body string) {
	subject = "Payment received - " + gymName
	body = fmt.Sprintf(`Hi %s,

We have received your payment of %s on %s.

Outstanding balance on your plan: %s

Thank you!

- %s`, job.Name, job.Amount, job.PaidAt.Format("Jan 2, 2006"), job.Due, gymName)
	return subject, body
}
