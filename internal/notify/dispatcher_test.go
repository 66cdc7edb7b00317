package notify

import (
	"context"
	"testing"
	"time"

	"activitynotifier/internal/channel"
	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_SelectNone(t *testing.T) {
	senders, fakes := newFakeSenders()
	d := NewDispatcher(senders, newChannelLimiters(5), time.Second, discardLogger())

	user := models.User{Identity: testIdentity, Email: "a@example.com", Phone: "+15555550100"}
	result := d.Send(context.Background(), user, models.ActivityLike, models.SelectNone, "hello")

	assert.True(t, result.Success)
	assert.False(t, result.NotificationSent)
	assert.False(t, result.RateLimited)
	assert.Empty(t, result.PerChannel)
	for _, f := range fakes {
		assert.Empty(t, f.Sent())
	}
}

func TestDispatcher_SingleChannel(t *testing.T) {
	senders, fakes := newFakeSenders()
	d := NewDispatcher(senders, newChannelLimiters(5), time.Second, discardLogger())

	user := models.User{Identity: testIdentity, Email: "a@example.com"}
	result := d.Send(context.Background(), user, models.ActivityLike, models.SelectEmail, "Content liked with ID: 5")

	require.True(t, result.Success)
	assert.True(t, result.NotificationSent)
	assert.Equal(t, map[models.Channel]models.DispatchOutcome{
		models.ChannelEmail: models.Sent(),
	}, result.PerChannel)

	sent := fakes[models.ChannelEmail].Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].Destination)
	assert.Equal(t, "UGC Tracker: Content Like Notification", sent[0].Subject)
	assert.Equal(t, "Content liked with ID: 5", sent[0].Body)
}

func TestDispatcher_AllSkipsMissingContacts(t *testing.T) {
	senders, fakes := newFakeSenders()
	d := NewDispatcher(senders, newChannelLimiters(5), time.Second, discardLogger())

	user := models.User{Identity: testIdentity, Email: "a@example.com"}
	result := d.Send(context.Background(), user, models.ActivityLogin, models.SelectAll, "msg")

	assert.True(t, result.Success)
	assert.True(t, result.NotificationSent)
	assert.False(t, result.RateLimited)
	assert.Equal(t, models.OutcomeSent, result.PerChannel[models.ChannelEmail].Status)
	assert.Equal(t, models.OutcomeSkippedNoContact, result.PerChannel[models.ChannelSMS].Status)
	assert.Equal(t, models.OutcomeSkippedNoContact, result.PerChannel[models.ChannelChat].Status)
	assert.Empty(t, fakes[models.ChannelSMS].Sent())
}

func TestDispatcher_NoContactAtAll(t *testing.T) {
	senders, _ := newFakeSenders()
	d := NewDispatcher(senders, newChannelLimiters(5), time.Second, discardLogger())

	result := d.Send(context.Background(), models.User{Identity: testIdentity}, models.ActivityLogin, models.SelectSMS, "msg")

	assert.True(t, result.Success)
	assert.False(t, result.NotificationSent)
	assert.False(t, result.RateLimited, "skipped channels are not attempts")
}

func TestDispatcher_InvalidUser(t *testing.T) {
	senders, fakes := newFakeSenders()
	d := NewDispatcher(senders, newChannelLimiters(5), time.Second, discardLogger())

	result := d.Send(context.Background(), models.User{Email: "a@example.com"}, models.ActivityLogin, models.SelectEmail, "msg")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.PerChannel)
	assert.Empty(t, fakes[models.ChannelEmail].Sent())
}

func TestDispatcher_ChannelRateLimit(t *testing.T) {
	senders, fakes := newFakeSenders()
	d := NewDispatcher(senders, newChannelLimiters(1), time.Second, discardLogger())
	user := models.User{Identity: testIdentity, Email: "a@example.com", Phone: "+15555550100"}
	ctx := context.Background()

	first := d.Send(ctx, user, models.ActivityLogin, models.SelectEmail, "one")
	require.True(t, first.NotificationSent)

	second := d.Send(ctx, user, models.ActivityLogin, models.SelectEmail, "two")
	assert.True(t, second.Success)
	assert.False(t, second.NotificationSent)
	assert.True(t, second.RateLimited)
	outcome := second.PerChannel[models.ChannelEmail]
	assert.Equal(t, models.OutcomeRateLimited, outcome.Status)
	require.NotNil(t, outcome.ResetAt)
	assert.True(t, outcome.ResetAt.After(time.Now()))

	// Email is exhausted but SMS is independent.
	third := d.Send(ctx, user, models.ActivityLogin, models.SelectAll, "three")
	assert.False(t, third.RateLimited)
	assert.True(t, third.NotificationSent)
	assert.Equal(t, models.OutcomeRateLimited, third.PerChannel[models.ChannelEmail].Status)
	assert.Equal(t, models.OutcomeSent, third.PerChannel[models.ChannelSMS].Status)
	assert.Len(t, fakes[models.ChannelEmail].Sent(), 1)
}

func TestDispatcher_SendFailureIsolated(t *testing.T) {
	senders, fakes := newFakeSenders()
	fakes[models.ChannelSMS].err = errBoom
	d := NewDispatcher(senders, newChannelLimiters(5), time.Second, discardLogger())

	user := models.User{Identity: testIdentity, Email: "a@example.com", Phone: "+15555550100"}
	result := d.Send(context.Background(), user, models.ActivityLogin, models.SelectAll, "msg")

	assert.True(t, result.Success)
	assert.True(t, result.NotificationSent)
	assert.Equal(t, models.OutcomeSent, result.PerChannel[models.ChannelEmail].Status)
	assert.Equal(t, models.OutcomeSent, result.PerChannel[models.ChannelChat].Status)

	failed := result.PerChannel[models.ChannelSMS]
	assert.Equal(t, models.OutcomeSendFailed, failed.Status)
	assert.Equal(t, "boom", failed.Error)
}

func TestDispatcher_TimeoutAbandonsStuckSender(t *testing.T) {
	senders, fakes := newFakeSenders()
	fakes[models.ChannelChat].delay = 2 * time.Second
	fakes[models.ChannelChat].ignoreCtx = true
	d := NewDispatcher(senders, newChannelLimiters(5), 50*time.Millisecond, discardLogger())

	user := models.User{Identity: testIdentity, Email: "a@example.com", Phone: "+15555550100"}
	start := time.Now()
	result := d.Send(context.Background(), user, models.ActivityLogin, models.SelectAll, "msg")

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, result.Success)
	assert.Equal(t, models.OutcomeSent, result.PerChannel[models.ChannelEmail].Status)
	assert.Equal(t, models.OutcomeSent, result.PerChannel[models.ChannelSMS].Status)

	chat := result.PerChannel[models.ChannelChat]
	assert.Equal(t, models.OutcomeSendFailed, chat.Status)
	assert.Contains(t, chat.Error, "timed out")
}

func TestDispatcher_TimeoutWithContextAwareSender(t *testing.T) {
	senders, fakes := newFakeSenders()
	fakes[models.ChannelEmail].delay = time.Second
	d := NewDispatcher(senders, nil, 20*time.Millisecond, discardLogger())

	result := d.Send(context.Background(), models.User{Identity: testIdentity, Email: "a@example.com"}, models.ActivityLogin, models.SelectEmail, "msg")

	email := result.PerChannel[models.ChannelEmail]
	assert.Equal(t, models.OutcomeSendFailed, email.Status)
	assert.Contains(t, email.Error, "timed out")
}

func TestDispatcher_SenderPanic(t *testing.T) {
	senders, fakes := newFakeSenders()
	fakes[models.ChannelEmail].panicWith = "smtp exploded"
	d := NewDispatcher(senders, newChannelLimiters(5), time.Second, discardLogger())

	user := models.User{Identity: testIdentity, Email: "a@example.com", Phone: "+15555550100"}
	result := d.Send(context.Background(), user, models.ActivityLogin, models.SelectAll, "msg")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "smtp exploded")
	assert.Equal(t, models.OutcomeSendFailed, result.PerChannel[models.ChannelEmail].Status)
	assert.Equal(t, models.OutcomeSent, result.PerChannel[models.ChannelSMS].Status)
	assert.Equal(t, models.OutcomeSent, result.PerChannel[models.ChannelChat].Status)
}

func TestDispatcher_LimiterError(t *testing.T) {
	senders, fakes := newFakeSenders()
	limiters := map[models.Channel]ratelimit.Limiter{models.ChannelEmail: failingLimiter{err: errBoom}}
	d := NewDispatcher(senders, limiters, time.Second, discardLogger())

	result := d.Send(context.Background(), models.User{Identity: testIdentity, Email: "a@example.com"}, models.ActivityLogin, models.SelectEmail, "msg")

	assert.True(t, result.Success)
	outcome := result.PerChannel[models.ChannelEmail]
	assert.Equal(t, models.OutcomeSendFailed, outcome.Status)
	assert.Contains(t, outcome.Error, "rate limit check")
	assert.Empty(t, fakes[models.ChannelEmail].Sent())
}

func TestDispatcher_MissingSender(t *testing.T) {
	d := NewDispatcher(map[models.Channel]channel.Sender{}, nil, 0, nil)

	result := d.Send(context.Background(), models.User{Identity: testIdentity, Phone: "+15555550100"}, models.ActivityLogin, models.SelectSMS, "msg")

	outcome := result.PerChannel[models.ChannelSMS]
	assert.Equal(t, models.OutcomeSendFailed, outcome.Status)
	assert.Contains(t, outcome.Error, "no sender configured")
}
