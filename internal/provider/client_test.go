package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/admin_console/internal/document"
	"github.com/congo-pay/admin_console/internal/logging"
	"github.com/congo-pay/admin_console/internal/provider"
)

func TestClientVerify_SendsWireRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/verify-id/merchant-42", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"type":      "passport",
			"number":    "A1234567",
			"firstname": "Ada",
			"lastname":  "Obi",
			"dob":       "1990-05-01",
		}, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Verified","data":{"first_name":"Ada"}}`))
	}))
	defer server.Close()

	client := provider.NewClient(server.URL+"/", "test-key", time.Second, logging.Discard())
	req := document.BuildRequest(document.Passport, "A1234567", &document.PersonalInfo{FirstName: "Ada", LastName: "Obi", DateOfBirth: "1990-05-01"})

	resp, err := client.Verify(context.Background(), "merchant-42", req)
	require.NoError(t, err)
	assert.True(t, resp.Status)
	assert.Equal(t, "Verified", resp.Message)
	assert.JSONEq(t, `{"first_name":"Ada"}`, string(resp.Data))
}

func TestClientVerify_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		category provider.Category
		sentinel error
		message  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"token expired"}`, provider.CategoryUnauthorized, provider.ErrUnauthorized, "token expired"},
		{"rate limited", http.StatusTooManyRequests, ``, provider.CategoryRateLimited, provider.ErrRateLimited, ""},
		{"server error with message", http.StatusBadGateway, `{"status":false,"message":"registry offline"}`, provider.CategoryTransport, nil, "registry offline"},
		{"server error plain text", http.StatusInternalServerError, `oops`, provider.CategoryTransport, nil, ""},
		{"logical failure", http.StatusOK, `{"status":false,"message":"Record not found"}`, provider.CategoryProviderFailure, provider.ErrVerificationFailed, "Record not found"},
		{"malformed body", http.StatusOK, `{"status":tru`, provider.CategoryBadData, nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := provider.NewClient(server.URL, "k", time.Second, nil)
			_, err := client.Verify(context.Background(), "s1", document.BuildRequest(document.NationalID, "12345678901", nil))
			require.Error(t, err)
			assert.Equal(t, tc.category, provider.CategoryOf(err))
			assert.Equal(t, tc.message, provider.ServerMessage(err))
			if tc.sentinel != nil {
				assert.True(t, errors.Is(err, tc.sentinel))
			}
		})
	}
}

func TestClientVerify_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := provider.NewClient(server.URL, "k", 50*time.Millisecond, nil)
	_, err := client.Verify(context.Background(), "s1", document.BuildRequest(document.NationalID, "12345678901", nil))
	require.Error(t, err)
	assert.Equal(t, provider.CategoryTimeout, provider.CategoryOf(err))
}

func TestClientVerify_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := provider.NewClient(url, "k", time.Second, nil)
	_, err := client.Verify(context.Background(), "s1", document.BuildRequest(document.NationalID, "12345678901", nil))
	require.Error(t, err)
	assert.Equal(t, provider.CategoryTransport, provider.CategoryOf(err))
}
