package verification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/admin_console/internal/document"
	"github.com/congo-pay/admin_console/internal/logging"
	"github.com/congo-pay/admin_console/internal/notification"
	"github.com/congo-pay/admin_console/internal/provider"
)

type stubProvider struct {
	mu       sync.Mutex
	requests []document.Request
	response provider.Response
	err      error
	block    chan struct{}
}

func (p *stubProvider) Verify(ctx context.Context, _ string, req document.Request) (provider.Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return provider.Response{}, &provider.Error{Category: provider.CategoryTimeout, Underlying: ctx.Err()}
		}
	}
	return p.response, p.err
}

type testNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type fixture struct {
	svc      *Service
	provider *stubProvider
	notifier *testNotifier
	repo     Repository
	metrics  *Metrics
}

func newFixture(t *testing.T, p *stubProvider) fixture {
	t.Helper()
	notifier := &testNotifier{}
	repo := NewMemoryRepository()
	metrics := NewMetrics(prometheus.NewRegistry())
	svc, err := NewService(Deps{
		Provider: p,
		Repo:     repo,
		Notifier: notifier,
		Metrics:  metrics,
		Logger:   logging.Discard(),
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	return fixture{svc: svc, provider: p, notifier: notifier, repo: repo, metrics: metrics}
}

func verified(data string) provider.Response {
	return provider.Response{Status: true, Message: "Verified", Data: json.RawMessage(data)}
}

func TestSubmitNINEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify-id/merchant-7", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"type": "nin", "number": "12345678901"}, body)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verified","data":{"firstname":"Ada","nin":"12345678901","nok_firstname":"John","trackingId":""}}`))
	}))
	defer server.Close()

	notifier := &testNotifier{}
	svc, err := NewService(Deps{
		Provider: provider.NewClient(server.URL, "key", time.Second, logging.Discard()),
		Notifier: notifier,
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), "op-1", "merchant-7", document.Input{DocumentType: "nin", Number: "123 4567 8901"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, document.NationalID, result.DocumentType)

	nok, ok := result.Section(CategoryNextOfKin)
	require.True(t, ok)
	assert.Equal(t, "John", nok.Entries[0].Value)

	ident, ok := result.Section(CategoryIdentification)
	require.True(t, ok)
	require.Len(t, ident.Entries, 1)
	assert.Equal(t, "123****901", ident.Entries[0].Value)

	snap := svc.Session("op-1")
	assert.Equal(t, StateSucceeded, snap.State)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification.KindVerificationSucceeded, notifier.sent[0].Kind)
	assert.Equal(t, MessageVerified, notifier.sent[0].Body)

	history, err := svc.History(context.Background(), "op-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "123****901", history[0].MaskedNumber)
	assert.Equal(t, OutcomeSucceeded, history[0].Outcome)
}

func TestSubmitValidationFailureNeverCallsProvider(t *testing.T) {
	f := newFixture(t, &stubProvider{})

	_, err := f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "bvn", Number: "12345abcde1"})
	var verr *document.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "BVN must contain only numbers", verr.Fields[document.FieldNumber])

	assert.Empty(t, f.provider.requests)
	assert.Equal(t, StateFailed, f.svc.Session("op-1").State)

	history, err := f.svc.History(context.Background(), "op-1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notification.KindVerificationFailed, f.notifier.sent[0].Kind)
	assert.Equal(t, MessageInvalidInput, f.notifier.sent[0].Body)
}

func TestSubmitPersonalInfoOnlyWhenRequired(t *testing.T) {
	f := newFixture(t, &stubProvider{response: verified(`{"first_name":"Ada"}`)})
	f.svc.validator = document.NewValidator(document.WithClock(func() time.Time {
		return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	}))
	info := &document.PersonalInfo{FirstName: " Ada ", LastName: "Obi", DateOfBirth: "1990-05-01"}

	_, err := f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "passport", Number: "A1234567", PersonalInfo: info})
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "nin", Number: "12345678901", PersonalInfo: info})
	require.NoError(t, err)

	require.Len(t, f.provider.requests, 2)
	assert.Equal(t, "Ada", f.provider.requests[0].FirstName)
	assert.True(t, f.provider.requests[0].HasPersonalInfo())
	assert.False(t, f.provider.requests[1].HasPersonalInfo())
}

func TestSubmitProviderFailures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
		kind    string
	}{
		{"unauthorized", &provider.Error{Category: provider.CategoryUnauthorized, StatusCode: 401, Underlying: provider.ErrUnauthorized}, MessageUnauthorized, "unauthorized"},
		{"rate limited", &provider.Error{Category: provider.CategoryRateLimited, StatusCode: 429, Underlying: provider.ErrRateLimited}, MessageRateLimited, "rate_limited"},
		{"server message", &provider.Error{Category: provider.CategoryTransport, StatusCode: 500, Message: "Upstream unavailable"}, "Upstream unavailable", "transport"},
		{"generic", &provider.Error{Category: provider.CategoryTransport, StatusCode: 502}, MessageFailed, "transport"},
		{"logical failure", &provider.Error{Category: provider.CategoryProviderFailure, Message: "Record not found", Underlying: provider.ErrVerificationFailed}, "Record not found", "provider_failure"},
		{"unexpected", errors.New("boom"), MessageFailed, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &stubProvider{err: tc.err})

			_, err := f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "nin", Number: "12345678901"})
			require.Error(t, err)

			snap := f.svc.Session("op-1")
			assert.Equal(t, StateFailed, snap.State)
			assert.Nil(t, snap.Result)

			require.Len(t, f.notifier.sent, 1)
			assert.Equal(t, tc.message, f.notifier.sent[0].Body)

			history, err := f.svc.History(context.Background(), "op-1", 0)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, OutcomeFailed, history[0].Outcome)
			assert.Equal(t, tc.kind, history[0].ErrorKind)

			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Submissions.WithLabelValues("nin", OutcomeFailed)))
		})
	}
}

func TestSubmitUnreadableData(t *testing.T) {
	f := newFixture(t, &stubProvider{response: verified(`["not","an","object"]`)})

	_, err := f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "nin", Number: "12345678901"})
	assert.Equal(t, provider.CategoryBadData, provider.CategoryOf(err))
	assert.Equal(t, MessageBadResponse, f.notifier.sent[0].Body)
}

func TestSubmitTimesOut(t *testing.T) {
	p := &stubProvider{block: make(chan struct{})}
	f := newFixture(t, p)
	f.svc.timeout = 20 * time.Millisecond

	_, err := f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "nin", Number: "12345678901"})
	assert.Equal(t, provider.CategoryTimeout, provider.CategoryOf(err))
	assert.Equal(t, MessageTimeout, UserMessage(err))
	assert.Equal(t, StateFailed, f.svc.Session("op-1").State)
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	p := &stubProvider{block: make(chan struct{}), response: verified(`{"firstname":"Ada"}`)}
	f := newFixture(t, p)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "nin", Number: "12345678901"})
		done <- err
	}()
	require.Eventually(t, func() bool {
		return f.svc.Session("op-1").State == StateSubmitting
	}, time.Second, time.Millisecond)

	_, err := f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "nin", Number: "12345678901"})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.ErrorIs(t, f.svc.Reset("op-1"), ErrSubmissionInFlight)

	close(p.block)
	require.NoError(t, <-done)
	assert.Equal(t, StateSucceeded, f.svc.Session("op-1").State)
	assert.Len(t, p.requests, 1)
}

func TestExportCurrent(t *testing.T) {
	f := newFixture(t, &stubProvider{response: verified(`{"bvn":"12345678901","firstName":"Jane"}`)})

	_, err := f.svc.ExportCurrent("op-1")
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = f.svc.Submit(context.Background(), "op-1", "m", document.Input{DocumentType: "bvn", Number: "12345678901"})
	require.NoError(t, err)

	artifact, err := f.svc.ExportCurrent("op-1")
	require.NoError(t, err)
	assert.Equal(t, "bvn_verification_12345678901.json", artifact.Filename)
	assert.Contains(t, string(artifact.Content), `"bvn": "12345678901"`)

	require.NoError(t, f.svc.Reset("op-1"))
	_, err = f.svc.ExportCurrent("op-1")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestNewServiceRequiresProvider(t *testing.T) {
	_, err := NewService(Deps{Logger: logging.Discard()})
	assert.Error(t, err)
}
