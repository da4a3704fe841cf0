package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/worktugal/worktugal/internal/config"
	obsmetrics "github.com/worktugal/worktugal/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Workflow identifies which automation endpoint a payload is forwarded to.
type Workflow string

const (
	WorkflowCheckup    Workflow = "checkup"
	WorkflowLead       Workflow = "lead"
	WorkflowContact    Workflow = "contact"
	WorkflowAccountant Workflow = "accountant"
	WorkflowReview     Workflow = "review"
	WorkflowPayment    Workflow = "payment"
)

var ErrNotConfigured = errors.New("webhook_not_configured")

// Forwarder delivers flattened JSON payloads to the automation platform.
// Delivery is best-effort: callers log failures and move on, they never
// surface them to the original requester.
type Forwarder struct {
	log        *zap.Logger
	client     *http.Client
	urls       map[Workflow]string
	obsMetrics *obsmetrics.Metrics
}

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewForwarder(p Params) *Forwarder {
	return &Forwarder{
		log:    p.Log.Named("notify"),
		client: &http.Client{Timeout: 8 * time.Second},
		urls: map[Workflow]string{
			WorkflowCheckup:    p.Cfg.CheckupWebhookURL,
			WorkflowLead:       p.Cfg.LeadWebhookURL,
			WorkflowContact:    p.Cfg.ContactWebhookURL,
			WorkflowAccountant: p.Cfg.AccountantWebhookURL,
			WorkflowReview:     p.Cfg.ReviewWebhookURL,
			WorkflowPayment:    p.Cfg.PaymentWebhookURL,
		},
		obsMetrics: p.ObsMetrics,
	}
}

// Forward posts the payload plus a timestamp to the workflow's endpoint. A
// missing endpoint is not an error: the workflow is simply not wired up in
// this environment.
func (f *Forwarder) Forward(ctx context.Context, workflow Workflow, payload map[string]any) error {
	url := strings.TrimSpace(f.urls[workflow])
	if url == "" {
		f.log.Debug("automation webhook not configured, skipping",
			zap.String("workflow", string(workflow)),
		)
		return ErrNotConfigured
	}

	if payload == nil {
		payload = map[string]any{}
	}
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		f.recordDelivery(ctx, workflow, false)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		f.recordDelivery(ctx, workflow, false)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.recordDelivery(ctx, workflow, false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		f.recordDelivery(ctx, workflow, false)
		return fmt.Errorf("automation webhook returned status %d", resp.StatusCode)
	}

	f.recordDelivery(ctx, workflow, true)
	return nil
}

// ForwardLogged is Forward with the best-effort policy applied: failures are
// logged and swallowed.
func (f *Forwarder) ForwardLogged(ctx context.Context, workflow Workflow, payload map[string]any) {
	err := f.Forward(ctx, workflow, payload)
	if err == nil || errors.Is(err, ErrNotConfigured) {
		return
	}
	f.log.Warn("automation webhook delivery failed",
		zap.String("workflow", string(workflow)),
		zap.Error(err),
	)
}

func (f *Forwarder) recordDelivery(ctx context.Context, workflow Workflow, delivered bool) {
	if f.obsMetrics != nil {
		f.obsMetrics.RecordNotification(ctx, string(workflow), delivered)
	}
}
