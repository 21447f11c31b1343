package client

import (
	"context"
	"fmt"

	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// WebhooksClient implements grist.WebhooksClient.
type WebhooksClient struct {
	httpClient *http.Client
}

// NewWebhooksClient creates a new webhooks client.
func NewWebhooksClient(httpClient *http.Client) *WebhooksClient {
	return &WebhooksClient{
		httpClient: httpClient,
	}
}

// webhooksEnvelope is the wire wrapper around webhook collections.
type webhooksEnvelope struct {
	Webhooks []grist.Webhook `json:"webhooks"`
}

// List implements grist.WebhooksClient.List.
func (c *WebhooksClient) List(ctx context.Context, docID string) ([]grist.Webhook, error) {
	path := fmt.Sprintf("/docs/%s/webhooks", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}

	var envelope webhooksEnvelope

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing webhooks list: %w", err)
	}

	return envelope.Webhooks, nil
}

// Create implements grist.WebhooksClient.Create.
func (c *WebhooksClient) Create(ctx context.Context, docID string, webhooks []grist.WebhookFields) ([]string, error) {
	path := fmt.Sprintf("/docs/%s/webhooks", defaultDocID(c.httpClient, docID))

	type webhookRow struct {
		Fields grist.WebhookFields `json:"fields"`
	}

	rows := make([]webhookRow, len(webhooks))
	for i, fields := range webhooks {
		rows[i] = webhookRow{Fields: fields}
	}

	resp, err := c.httpClient.Post(ctx, path, map[string][]webhookRow{"webhooks": rows})
	if err != nil {
		return nil, fmt.Errorf("creating webhooks: %w", err)
	}

	var envelope webhooksEnvelope

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing webhooks response: %w", err)
	}

	ids := make([]string, 0, len(envelope.Webhooks))
	for _, webhook := range envelope.Webhooks {
		ids = append(ids, webhook.ID)
	}

	return ids, nil
}

// Update implements grist.WebhooksClient.Update.
func (c *WebhooksClient) Update(ctx context.Context, docID, webhookID string, update grist.WebhookUpdate) error {
	path := fmt.Sprintf("/docs/%s/webhooks/%s", defaultDocID(c.httpClient, docID), webhookID)

	body := map[string]grist.WebhookUpdate{"fields": update}

	_, err := c.httpClient.Patch(ctx, path, body)
	if err != nil {
		return fmt.Errorf("updating webhook: %w", err)
	}

	return nil
}

// Delete implements grist.WebhooksClient.Delete.
func (c *WebhooksClient) Delete(ctx context.Context, docID, webhookID string) error {
	path := fmt.Sprintf("/docs/%s/webhooks/%s", defaultDocID(c.httpClient, docID), webhookID)

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}

	return nil
}

// EmptyQueue implements grist.WebhooksClient.EmptyQueue.
func (c *WebhooksClient) EmptyQueue(ctx context.Context, docID string) error {
	path := fmt.Sprintf("/docs/%s/webhooks/queue", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("emptying webhook queue: %w", err)
	}

	return nil
}
