package events

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/AnitBishwas/swiss-event-handler/internal/model"
	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
)

// MarketingEvent is one action pushed to the marketing automation
// platform, keyed by the customer's phone number.
type MarketingEvent struct {
	Name       string
	CustomerID string
	Attributes map[string]any
}

type MoengageClient struct {
	http        *resty.Client
	baseURL     string
	workspaceID string
	apiKey      string
	log         *slog.Logger
}

func NewMoengageClient(baseURL, workspaceID, apiKey string, log *slog.Logger) *MoengageClient {
	return &MoengageClient{
		http:        resty.New().SetTimeout(model.DefaultClientTimeout),
		baseURL:     baseURL,
		workspaceID: workspaceID,
		apiKey:      apiKey,
		log:         log,
	}
}

func (c *MoengageClient) authHeader() (string, error) {
	if c.workspaceID == "" || c.apiKey == "" {
		return "", fmt.Errorf("failed to generate encoded auth key: %w",
			serviceerrs.ErrBlankPayload)
	}
	encoded := base64.StdEncoding.EncodeToString(
		[]byte(c.workspaceID + ":" + c.apiKey))
	return "Basic " + encoded, nil
}

func (c *MoengageClient) Send(ctx context.Context, ev MarketingEvent) error {
	if ev.CustomerID == "" {
		return serviceerrs.ErrMissingCustomerID
	}
	auth, err := c.authHeader()
	if err != nil {
		return err
	}

	payload := map[string]any{
		"type":        "event",
		"customer_id": ev.CustomerID,
		"actions": []map[string]any{
			{
				"action":     ev.Name,
				"attributes": ev.Attributes,
			},
		},
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(model.HeaderContentType, "application/json").
		SetHeader("Authorization", auth).
		SetBody(payload).
		Post(c.baseURL + "/v1/event/" + c.workspaceID)
	if err != nil {
		return fmt.Errorf("failed to create moengage event: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return &serviceerrs.UpstreamError{
			Op:     "moengage event",
			Reason: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	return nil
}
