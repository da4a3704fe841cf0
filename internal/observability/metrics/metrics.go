package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	checkups      metric.Int64Counter
	paymentEvents metric.Int64Counter
	orders        metric.Int64Counter
	notifications metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "worktugal"
	}
	meter := provider.Meter(name)

	checkups, err := meter.Int64Counter("worktugal_checkups_total")
	if err != nil {
		return nil, err
	}
	paymentEvents, err := meter.Int64Counter("worktugal_payment_events_total")
	if err != nil {
		return nil, err
	}
	orders, err := meter.Int64Counter("worktugal_orders_total")
	if err != nil {
		return nil, err
	}
	notifications, err := meter.Int64Counter("worktugal_notifications_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		checkups:      checkups,
		paymentEvents: paymentEvents,
		orders:        orders,
		notifications: notifications,
	}, nil
}

// RecordCheckup increments checkup submission counts.
func (m *Metrics) RecordCheckup(ctx context.Context, workType string, criticalCount int) {
	if m == nil {
		return
	}
	m.checkups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("work_type", strings.TrimSpace(workType)),
		attribute.Bool("has_critical", criticalCount > 0),
	))
}

// RecordPaymentEvent increments payment event counts.
func (m *Metrics) RecordPaymentEvent(ctx context.Context, eventType, paymentType string) {
	if m == nil {
		return
	}
	m.paymentEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", strings.TrimSpace(eventType)),
		attribute.String("payment_type", strings.TrimSpace(paymentType)),
	))
}

// RecordOrder increments recorded order counts.
func (m *Metrics) RecordOrder(ctx context.Context, paymentType string) {
	if m == nil {
		return
	}
	m.orders.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_type", strings.TrimSpace(paymentType)),
	))
}

// RecordNotification increments outbound automation-webhook delivery counts.
func (m *Metrics) RecordNotification(ctx context.Context, workflow string, delivered bool) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", strings.TrimSpace(workflow)),
		attribute.Bool("delivered", delivered),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
