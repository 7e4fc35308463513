package fitbit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticResolver struct {
	token string
	err   error
	keys  []string
}

func (r *staticResolver) ResolveAccessToken(_ context.Context, key string) (string, error) {
	r.keys = append(r.keys, key)
	return r.token, r.err
}

func newTestClient(t *testing.T, resolver TokenResolver, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(resolver, WithBaseURL(srv.URL))
}

func TestClientProfile(t *testing.T) {
	resolver := &staticResolver{token: "access-1"}
	client := newTestClient(t, resolver, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/1/user/-/profile.json", request.URL.Path)
		assert.Equal(t, "Bearer access-1", request.Header.Get("Authorization"))
		_, _ = fmt.Fprint(writer, `{"user":{"encodedId":"ABC123","displayName":"Alice","averageDailySteps":8421}}`)
	})

	profile, err := client.Profile(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "ABC123", profile.User.EncodedID)
	assert.Equal(t, "Alice", profile.User.DisplayName)
	assert.Equal(t, 8421, profile.User.AverageDailySteps)
	assert.Equal(t, []string{"alice"}, resolver.keys)
}

func TestClientActivitySummary(t *testing.T) {
	client := newTestClient(t, &staticResolver{token: "access-1"}, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/1/user/-/activities/date/2026-08-30.json", request.URL.Path)
		_, _ = fmt.Fprint(writer, `{"summary":{"steps":10432,"caloriesOut":2450,"restingHeartRate":58},"goals":{"steps":10000}}`)
	})

	summary, err := client.ActivitySummary(context.Background(), "alice", "2026-08-30")
	assert.NoError(t, err)
	assert.Equal(t, 10432, summary.Summary.Steps)
	assert.Equal(t, 58, summary.Summary.RestingHeartRate)
	assert.Equal(t, 10000, summary.Goals.Steps)
}

func TestClientSleepLog(t *testing.T) {
	client := newTestClient(t, &staticResolver{token: "access-1"}, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/1.2/user/-/sleep/date/today.json", request.URL.Path)
		_, _ = fmt.Fprint(writer, `{"sleep":[{"logId":1,"minutesAsleep":420,"isMainSleep":true}],"summary":{"totalMinutesAsleep":420,"totalSleepRecords":1}}`)
	})

	sleepLog, err := client.SleepLog(context.Background(), "alice", "today")
	assert.NoError(t, err)
	assert.Len(t, sleepLog.Sleep, 1)
	assert.Equal(t, 420, sleepLog.Sleep[0].MinutesAsleep)
	assert.Equal(t, 1, sleepLog.Summary.TotalSleepRecords)
}

func TestClientHeartRate(t *testing.T) {
	client := newTestClient(t, &staticResolver{token: "access-1"}, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/1/user/-/activities/heart/date/today/7d.json", request.URL.Path)
		_, _ = fmt.Fprint(writer, `{"activities-heart":[{"dateTime":"2026-08-30","value":{"restingHeartRate":58}}]}`)
	})

	series, err := client.HeartRate(context.Background(), "alice", "today", "7d")
	assert.NoError(t, err)
	assert.Len(t, series.ActivitiesHeart, 1)
	assert.Equal(t, 58, series.ActivitiesHeart[0].Value.RestingHeartRate)
}

func TestClientAPIError(t *testing.T) {
	client := newTestClient(t, &staticResolver{token: "access-1"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprint(writer, `{"errors":[{"errorType":"rate_limit"}]}`)
	})

	_, err := client.Profile(context.Background(), "alice")
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate_limit")
}

func TestClientResolverError(t *testing.T) {
	resolverErr := fmt.Errorf("not authorized")
	called := false
	client := newTestClient(t, &staticResolver{err: resolverErr}, func(http.ResponseWriter, *http.Request) {
		called = true
	})

	_, err := client.Profile(context.Background(), "alice")
	assert.ErrorIs(t, err, resolverErr)
	// No API call without a credential.
	assert.False(t, called)
}
