package notify

import (
	"context"
	"testing"
	"time"

	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// panickingDispatcher simulates a bug past the limiter check.
type panickingDispatcher struct{}

func (panickingDispatcher) Send(context.Context, models.User, models.ActivityKind, models.ChannelSelector, string) models.DispatchResult {
	panic("dispatcher bug")
}

func newTestTracker(activityMax int) (*Tracker, map[models.Channel]*fakeSender) {
	senders, fakes := newFakeSenders()
	d := NewDispatcher(senders, newChannelLimiters(10), time.Second, discardLogger())
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{MaxRequests: activityMax, Window: time.Minute})
	tr := NewTracker(limiter, d, discardLogger(), WithTrackerClock(fixedClock), WithLocation(time.UTC))
	return tr, fakes
}

func TestTracker_LikeWithEmail(t *testing.T) {
	tr, fakes := newTestTracker(5)
	user := models.User{Identity: testIdentity, Email: "a@example.com"}

	result := tr.Track(context.Background(), user, models.ActivityLike, models.SelectEmail, models.ActivityPayload{ContentID: "5"})

	assert.True(t, result.Success)
	assert.True(t, result.ActivityLogged)
	assert.False(t, result.RateLimited)
	assert.True(t, result.NotificationSent)
	assert.NotEmpty(t, result.EventID)
	assert.Equal(t, "Content liked with ID: 5 at 3/1/2024, 2:05:09 PM", result.Message)

	sent := fakes[models.ChannelEmail].Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, result.Message, sent[0].Body)
}

func TestTracker_LikeWithNoneStillLogs(t *testing.T) {
	tr, fakes := newTestTracker(5)
	user := models.User{Identity: testIdentity, Email: "a@example.com"}

	result := tr.Track(context.Background(), user, models.ActivityLike, models.SelectNone, models.ActivityPayload{ContentID: "5"})

	assert.True(t, result.Success)
	assert.True(t, result.ActivityLogged)
	assert.False(t, result.NotificationSent)
	assert.Empty(t, result.PerChannel)
	assert.Empty(t, fakes[models.ChannelEmail].Sent())
}

func TestTracker_SMSWithoutPhone(t *testing.T) {
	tr, _ := newTestTracker(5)
	user := models.User{Identity: testIdentity, Email: "a@example.com"}

	result := tr.Track(context.Background(), user, models.ActivityLogin, models.SelectSMS, models.ActivityPayload{})

	assert.True(t, result.Success)
	assert.True(t, result.ActivityLogged)
	assert.False(t, result.NotificationSent)
	assert.Equal(t, models.OutcomeSkippedNoContact, result.PerChannel[models.ChannelSMS].Status)
}

func TestTracker_ActivityRateLimit(t *testing.T) {
	tr, fakes := newTestTracker(2)
	user := models.User{Identity: testIdentity, Email: "a@example.com"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		r := tr.Track(ctx, user, models.ActivityLogin, models.SelectEmail, models.ActivityPayload{})
		require.True(t, r.ActivityLogged)
	}

	denied := tr.Track(ctx, user, models.ActivityLogin, models.SelectEmail, models.ActivityPayload{})
	assert.True(t, denied.Success)
	assert.False(t, denied.ActivityLogged)
	assert.True(t, denied.RateLimited)
	assert.False(t, denied.NotificationSent)
	assert.Empty(t, denied.Message)
	assert.Empty(t, denied.Error)
	require.NotNil(t, denied.ResetAt)
	assert.Len(t, fakes[models.ChannelEmail].Sent(), 2)

	// Other identities have their own window.
	other := tr.Track(ctx, models.User{Identity: "0xother", Email: "b@example.com"}, models.ActivityLogin, models.SelectEmail, models.ActivityPayload{})
	assert.True(t, other.ActivityLogged)
}

func TestTracker_InvalidUser(t *testing.T) {
	tr, _ := newTestTracker(5)

	result := tr.Track(context.Background(), models.User{}, models.ActivityLogin, models.SelectEmail, models.ActivityPayload{})

	assert.False(t, result.Success)
	assert.False(t, result.ActivityLogged)
	assert.Equal(t, models.ErrMissingIdentity.Error(), result.Error)
}

func TestTracker_LimiterError(t *testing.T) {
	senders, _ := newFakeSenders()
	d := NewDispatcher(senders, nil, time.Second, discardLogger())
	tr := NewTracker(failingLimiter{err: errBoom}, d, discardLogger())

	result := tr.Track(context.Background(), models.User{Identity: testIdentity}, models.ActivityLogin, models.SelectEmail, models.ActivityPayload{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "boom")
}

func TestTracker_RecoversPanic(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{MaxRequests: 5, Window: time.Minute})
	tr := NewTracker(limiter, panickingDispatcher{}, discardLogger())

	result := tr.Track(context.Background(), models.User{Identity: testIdentity}, models.ActivityLogin, models.SelectEmail, models.ActivityPayload{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "dispatcher bug")
	assert.NotEmpty(t, result.EventID)
}

func TestTracker_SenderPanicFailsResult(t *testing.T) {
	tr, fakes := newTestTracker(5)
	fakes[models.ChannelEmail].panicWith = "kaboom"

	result := tr.Track(context.Background(), models.User{Identity: testIdentity, Email: "a@example.com"}, models.ActivityLogin, models.SelectEmail, models.ActivityPayload{})

	assert.False(t, result.Success)
	assert.True(t, result.ActivityLogged)
	assert.Equal(t, models.OutcomeSendFailed, result.PerChannel[models.ChannelEmail].Status)
}

func TestTracker_UsesLocation(t *testing.T) {
	senders, _ := newFakeSenders()
	d := NewDispatcher(senders, nil, time.Second, discardLogger())
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{MaxRequests: 5, Window: time.Minute})
	tr := NewTracker(limiter, d, discardLogger(), WithTrackerClock(fixedClock), WithLocation(time.FixedZone("X", -5*3600)))

	result := tr.Track(context.Background(), models.User{Identity: "short"}, models.ActivityLogin, models.SelectNone, models.ActivityPayload{})

	assert.Equal(t, "Login detected for account short at 3/1/2024, 9:05:09 AM", result.Message)
}
