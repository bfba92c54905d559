package services

import (
	"context"
	"time"

	aws_pkg "github.com/drme990/manasik-v2-sub001/pkg/aws"
)

// Option customizes a service at construction time.
type Option func(*serviceOptions)

type serviceOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

func applyOptions(opts []Option) serviceOptions {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// recordCount emits a business counter without blocking the request.
func recordCount(metrics aws_pkg.MetricsRecorder, name string, dims map[string]string) {
	if metrics == nil || !metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.RecordCount(ctx, name, dims)
	}()
}
