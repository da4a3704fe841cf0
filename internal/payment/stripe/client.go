package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/worktugal/worktugal/internal/payment/domain"
)

const apiBase = "https://api.stripe.com"

// Client is a thin form-encoded REST client for the provider endpoints the
// application needs. The API key never leaves the server.
type Client struct {
	apiKey string
	client *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params domain.CheckoutParams) (domain.ProviderSession, error) {
	mode := params.Mode
	if mode == "" {
		mode = domain.ModeOneTime
	}

	values := url.Values{}
	values.Set("mode", string(mode))
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	for key, value := range params.Metadata {
		values.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var session domain.ProviderSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, &session); err != nil {
		return domain.ProviderSession{}, err
	}
	if session.ID == "" {
		return domain.ProviderSession{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}

func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (domain.ProviderSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.ProviderSession{}, errors.New("session_id_required")
	}

	var session domain.ProviderSession
	if err := c.doRequest(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return domain.ProviderSession{}, err
	}
	if session.ID == "" {
		return domain.ProviderSession{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}

func (c *Client) ListSubscriptions(ctx context.Context, customerID string) ([]domain.ProviderSubscription, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, errors.New("customer_id_required")
	}

	query := url.Values{}
	query.Set("customer", customerID)
	query.Set("status", "all")
	query.Set("limit", "10")

	var list subscriptionList
	path := "/v1/subscriptions?" + query.Encode()
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	subscriptions := make([]domain.ProviderSubscription, 0, len(list.Data))
	for _, entry := range list.Data {
		sub := entry.ProviderSubscription
		if len(entry.Items.Data) > 0 {
			sub.PriceID = entry.Items.Data[0].Price.ID
		}
		subscriptions = append(subscriptions, sub)
	}
	return subscriptions, nil
}

type subscriptionList struct {
	Data []subscriptionEntry `json:"data"`
}

type subscriptionEntry struct {
	domain.ProviderSubscription
	Items struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method string, path string, values url.Values, out any) error {
	if c.apiKey == "" {
		return errors.New("stripe_api_key_missing")
	}

	var body io.Reader = strings.NewReader("")
	if values != nil {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
