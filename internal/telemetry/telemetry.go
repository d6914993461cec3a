package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc は未送信のスパンを送り出してプロバイダを停止する関数です。
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup は OTLP/HTTP でトレースを送るプロバイダをグローバルに登録します。
// endpoint が空ならプロバイダは登録せず、何もしない ShutdownFunc を返すのだ。
// 呼び出し側は返された ShutdownFunc を defer してください。
func Setup(ctx context.Context, serviceName, endpoint string) (ShutdownFunc, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, fmt.Errorf("OTLP エクスポーターの初期化に失敗しました: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("トレースのリソース構築に失敗しました: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.Debug("トレースの送信を有効にしました", "endpoint", endpoint, "service", serviceName)
	return tp.Shutdown, nil
}
