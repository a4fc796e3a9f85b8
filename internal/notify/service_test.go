package notify

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"gymledger/internal/logger"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type fakeMailer struct {
	err  error
	sent []string
	body string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sent = append(f.sent, to)
	f.body = body
	return f.err
}

func newTestService(rdb *redis.Client, mailer Mailer) *Service {
	s := New(rdb, mailer, "Iron House")
	s.pollWait = time.Second
	s.retryDelay = 0
	return s
}

func encodedJob(t *testing.T, tries int) string {
	t.Helper()
	data, err := json.Marshal(ReceiptJob{
		To:     "asha@example.com",
		Name:   "Asha",
		Amount: "500.00",
		Due:    "700.00",
		PaidAt: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		Tries:  tries,
	})
	require.NoError(t, err)
	return string(data)
}

func TestSendPaymentReceipt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `"to":"asha@example.com".*"amount":"500.00","due":"700.00"`).SetVal(1)

	svc := newTestService(db, &fakeMailer{})

	err := svc.SendPaymentReceipt(context.Background(), "asha@example.com", "Asha", "500.00", "700.00", time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendPaymentReceiptError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	svc := newTestService(db, &fakeMailer{})

	err := svc.SendPaymentReceipt(context.Background(), "asha@example.com", "Asha", "1.00", "0.00", time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextSends(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, encodedJob(t, 0)})

	mailer := &fakeMailer{}
	svc := newTestService(db, mailer)

	svc.processNext(context.Background())

	assert.Equal(t, []string{"asha@example.com"}, mailer.sent)
	assert.Contains(t, mailer.body, "500.00")
	assert.Contains(t, mailer.body, "Mar 5, 2024")
	assert.Contains(t, mailer.body, "700.00")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextRequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, encodedJob(t, 0)})
	mock.Regexp().ExpectLPush(queueKey, `"tries":1`).SetVal(1)

	svc := newTestService(db, &fakeMailer{err: errors.New("smtp: 421 try later")})

	svc.processNext(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextParksAfterLastAttempt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, encodedJob(t, maxTries-1)})
	mock.Regexp().ExpectLPush(failedQueueKey, `"error":"smtp: 550 mailbox unavailable"`).SetVal(1)

	svc := newTestService(db, &fakeMailer{err: errors.New("smtp: 550 mailbox unavailable")})

	svc.processNext(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextSkipsBadPayload(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, "{not json"})

	mailer := &fakeMailer{}
	svc := newTestService(db, mailer)

	svc.processNext(context.Background())

	assert.Empty(t, mailer.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextEmptyQueue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(time.Second, queueKey).RedisNil()

	mailer := &fakeMailer{}
	svc := newTestService(db, mailer)

	svc.processNext(context.Background())

	assert.Empty(t, mailer.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextBacksOffWhenRedisIsDown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(50*time.Millisecond, queueKey).SetErr(errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))

	svc := newTestService(db, &fakeMailer{})
	svc.pollWait = 50 * time.Millisecond

	start := time.Now()
	svc.processNext(context.Background())

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextSkipsBackoffWhenStopping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(5*time.Second, queueKey).SetErr(context.Canceled)

	svc := newTestService(db, &fakeMailer{})
	svc.pollWait = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	svc.processNext(ctx)

	assert.Less(t, time.Since(start), time.Second)
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(queueKey).SetVal(5)

	svc := newTestService(db, &fakeMailer{})

	assert.Equal(t, int64(5), svc.QueueLength(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")
	mock.ExpectPing().SetErr(assert.AnError)

	svc := newTestService(db, &fakeMailer{})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.Error(t, svc.Ping(context.Background()))
}

func TestSMTPMailerMessage(t *testing.T) {
	m := NewSMTPMailer("noreply@gymledger.app", "Gym Desk", "localhost", "1025", "", "")

	msg := string(m.message("asha@example.com", "Payment received", "hello"))

	assert.True(t, strings.HasPrefix(msg, "From: Gym Desk <noreply@gymledger.app>\r\n"))
	assert.Contains(t, msg, "To: asha@example.com\r\n")
	assert.Contains(t, msg, "Subject: Payment received\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nhello"))
}
