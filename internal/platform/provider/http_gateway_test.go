package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, serverURL string, timeout time.Duration) *HTTPGateway {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewHTTPGateway(logger, &config.ProviderConfig{
		BaseURL:        serverURL,
		APIKey:         "test-key",
		Timeout:        timeout,
		ConnectRetries: 1,
	})
}

func testSubmitRequest() SubmitRequest {
	return SubmitRequest{
		RequestID: "a3f1c9",
		Service:   "airtime",
		Category:  shared.CategoryAirtime,
		Amount:    20_000,
		Recipient: "08011111111",
		Metadata:  map[string]string{"network": "mtn"},
	}
}

func TestHTTPGateway_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		var seenPayload submitPayload
		var seenAPIKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1/vas/submit", r.URL.Path)
			seenAPIKey = r.Header.Get("X-Api-Key")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&seenPayload))
			json.NewEncoder(w).Encode(submitResponse{
				Status:            "ACCEPTED",
				ProviderReference: "VTP-1",
				DeliveryState:     "DELIVERED",
			})
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 2*time.Second)
		result, err := gw.Submit(ctx, testSubmitRequest())
		require.NoError(t, err)
		assert.Equal(t, "VTP-1", result.ProviderReference)
		assert.Equal(t, shared.DeliveryStateDelivered, result.DeliveryState)

		assert.Equal(t, "test-key", seenAPIKey)
		assert.Equal(t, "a3f1c9", seenPayload.RequestID)
		assert.Equal(t, "airtime", seenPayload.Service)
		assert.Equal(t, int64(20_000), seenPayload.Amount)
		assert.Equal(t, "08011111111", seenPayload.Recipient)
	})

	t.Run("accepted without delivery state defaults to pending", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(submitResponse{
				Status:            "ACCEPTED",
				ProviderReference: "VTP-2",
			})
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 2*time.Second)
		result, err := gw.Submit(ctx, testSubmitRequest())
		require.NoError(t, err)
		assert.Equal(t, shared.DeliveryStatePending, result.DeliveryState)
	})

	t.Run("accepted without reference is ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(submitResponse{Status: "ACCEPTED"})
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 2*time.Second)
		result, err := gw.Submit(ctx, testSubmitRequest())
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAmbiguous{})
	})

	t.Run("rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(submitResponse{
				Status:  "REJECTED",
				Message: "recipient not serviceable",
			})
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 2*time.Second)
		result, err := gw.Submit(ctx, testSubmitRequest())
		assert.Nil(t, result)
		var rejected ErrRejected
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "recipient not serviceable", rejected.Reason)
	})

	t.Run("timeout after send is ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 50*time.Millisecond)
		result, err := gw.Submit(ctx, testSubmitRequest())
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAmbiguous{})
	})

	t.Run("unreachable provider is rejected after retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		serverURL := server.URL
		server.Close() // Nothing is listening anymore

		gw := newTestGateway(t, serverURL, 2*time.Second)
		result, err := gw.Submit(ctx, testSubmitRequest())
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrRejected{})
	})

	t.Run("undecodable response is ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>upstream error</html>"))
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 2*time.Second)
		result, err := gw.Submit(ctx, testSubmitRequest())
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAmbiguous{})
	})
}

func TestHTTPGateway_Requery(t *testing.T) {
	ctx := context.Background()

	t.Run("reports provider delivery state", func(t *testing.T) {
		for _, status := range []string{"DELIVERED", "PENDING", "FAILED"} {
			t.Run(status, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					require.Equal(t, "/v1/vas/requery", r.URL.Path)
					require.Equal(t, "VTP-1", r.URL.Query().Get("reference"))
					json.NewEncoder(w).Encode(requeryResponse{
						Status:            status,
						ProviderReference: "VTP-1",
					})
				}))
				defer server.Close()

				gw := newTestGateway(t, server.URL, 2*time.Second)
				result, err := gw.Requery(ctx, "VTP-1")
				require.NoError(t, err)
				assert.Equal(t, shared.DeliveryState(status), result.DeliveryState)
				assert.Equal(t, "VTP-1", result.ProviderReference)
			})
		}
	})

	t.Run("not found means never received", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 2*time.Second)
		result, err := gw.Requery(ctx, "a3f1c9")
		require.NoError(t, err)
		assert.Equal(t, shared.DeliveryStateFailed, result.DeliveryState)
	})

	t.Run("timeout is ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 50*time.Millisecond)
		result, err := gw.Requery(ctx, "VTP-1")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAmbiguous{})
	})

	t.Run("unknown status is ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(requeryResponse{Status: "PROCESSING"})
		}))
		defer server.Close()

		gw := newTestGateway(t, server.URL, 2*time.Second)
		result, err := gw.Requery(ctx, "VTP-1")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAmbiguous{})
	})
}
