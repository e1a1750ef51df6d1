package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

const maxResponseBytes = 1 << 20

type submitPayload struct {
	RequestID string            `json:"request_id"`
	Service   string            `json:"service"`
	Amount    int64             `json:"amount"`
	Recipient string            `json:"recipient"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type submitResponse struct {
	Status            string `json:"status"`
	ProviderReference string `json:"provider_reference"`
	DeliveryState     string `json:"delivery_state,omitempty"`
	Message           string `json:"message,omitempty"`
}

type requeryResponse struct {
	Status            string `json:"status"`
	ProviderReference string `json:"provider_reference"`
}

// HTTPGateway implements Gateway over the provider's HTTP API
type HTTPGateway struct {
	logger         *slog.Logger
	client         *http.Client
	baseURL        string
	apiKey         string
	connectRetries int
}

// NewHTTPGateway creates a gateway against the configured provider endpoint.
// The client timeout bounds every round trip including body read.
func NewHTTPGateway(logger *slog.Logger, cfg *config.ProviderConfig) *HTTPGateway {
	return &HTTPGateway{
		logger:         logger,
		client:         &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		connectRetries: cfg.ConnectRetries,
	}
}

// Submit sends the purchase to the provider. Dial failures mean the request
// never left this process, so they are retried up to connectRetries times and
// then reported as ErrRejected. Any failure after the connection was
// established is ErrAmbiguous: the provider may have received and charged
// the request.
func (g *HTTPGateway) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	body, err := json.Marshal(submitPayload{
		RequestID: req.RequestID,
		Service:   req.Service,
		Amount:    req.Amount,
		Recipient: req.Recipient,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submit payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.connectRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/vas/submit", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build submit request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if g.apiKey != "" {
			httpReq.Header.Set("X-Api-Key", g.apiKey)
		}

		resp, err := g.client.Do(httpReq)
		if err != nil {
			if requestNeverSent(err) {
				lastErr = err
				g.logger.Warn("Provider unreachable, retrying submit",
					"request_id", req.RequestID,
					"attempt", attempt+1,
					"error", err,
				)
				continue
			}
			return nil, ErrAmbiguous{Reason: err.Error()}
		}
		return g.decodeSubmit(req.RequestID, resp)
	}

	return nil, ErrRejected{Reason: fmt.Sprintf("provider unreachable: %v", lastErr)}
}

func (g *HTTPGateway) decodeSubmit(requestID string, resp *http.Response) (*SubmitResult, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// The provider answered but the body was cut off mid-read.
		return nil, ErrAmbiguous{Reason: fmt.Sprintf("failed to read provider response: %v", err)}
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, ErrAmbiguous{Reason: fmt.Sprintf("undecodable provider response (http %d)", resp.StatusCode)}
	}

	switch decoded.Status {
	case "ACCEPTED":
		if decoded.ProviderReference == "" {
			return nil, ErrAmbiguous{Reason: "provider accepted without a reference"}
		}
		state := shared.DeliveryState(decoded.DeliveryState)
		if state != shared.DeliveryStateDelivered {
			state = shared.DeliveryStatePending
		}
		g.logger.Debug("Provider accepted request",
			"request_id", requestID,
			"provider_reference", decoded.ProviderReference,
			"delivery_state", string(state),
		)
		return &SubmitResult{
			ProviderReference: decoded.ProviderReference,
			DeliveryState:     state,
			Message:           decoded.Message,
		}, nil

	case "REJECTED":
		reason := decoded.Message
		if reason == "" {
			reason = fmt.Sprintf("provider returned http %d", resp.StatusCode)
		}
		return nil, ErrRejected{Reason: reason}

	default:
		return nil, ErrAmbiguous{Reason: fmt.Sprintf("unknown provider status %q (http %d)", decoded.Status, resp.StatusCode)}
	}
}

// Requery asks the provider for the delivery state of a prior submit. It is
// read-only, so every transport failure simply leaves the outcome unknown.
// A 404 is definitive: the provider never received the request.
func (g *HTTPGateway) Requery(ctx context.Context, reference string) (*RequeryResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/vas/requery?reference="+url.QueryEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build requery request: %w", err)
	}
	if g.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, ErrAmbiguous{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &RequeryResult{
			ProviderReference: reference,
			DeliveryState:     shared.DeliveryStateFailed,
		}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, ErrAmbiguous{Reason: fmt.Sprintf("failed to read requery response: %v", err)}
	}

	var decoded requeryResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, ErrAmbiguous{Reason: fmt.Sprintf("undecodable requery response (http %d)", resp.StatusCode)}
	}

	providerRef := decoded.ProviderReference
	if providerRef == "" {
		providerRef = reference
	}

	switch decoded.Status {
	case "DELIVERED":
		return &RequeryResult{ProviderReference: providerRef, DeliveryState: shared.DeliveryStateDelivered}, nil
	case "PENDING":
		return &RequeryResult{ProviderReference: providerRef, DeliveryState: shared.DeliveryStatePending}, nil
	case "FAILED":
		return &RequeryResult{ProviderReference: providerRef, DeliveryState: shared.DeliveryStateFailed}, nil
	default:
		return nil, ErrAmbiguous{Reason: fmt.Sprintf("unknown requery status %q (http %d)", decoded.Status, resp.StatusCode)}
	}
}

// requestNeverSent reports whether the transport error happened before any
// bytes could have reached the provider, making a retry safe.
func requestNeverSent(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
