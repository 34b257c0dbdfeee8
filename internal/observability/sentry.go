// Package observability wires optional Sentry error reporting.
// Reporting is off unless SENTRY_DSN is set; every helper is a no-op then.
package observability

import (
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// DSNEnv names the environment variable holding the Sentry DSN.
const DSNEnv = "SENTRY_DSN"

var sentryEnabled atomic.Bool

// InitSentry configures the global Sentry hub from SENTRY_DSN,
// SENTRY_ENVIRONMENT and SENTRY_RELEASE. release is used when
// SENTRY_RELEASE is empty. The returned func flushes pending events.
func InitSentry(release string) (func(), bool, error) {
	dsn := strings.TrimSpace(os.Getenv(DSNEnv))
	if dsn == "" {
		sentryEnabled.Store(false)
		return func() {}, false, nil
	}

	if r := strings.TrimSpace(os.Getenv("SENTRY_RELEASE")); r != "" {
		release = r
	}

	options := sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		Release:          release,
		AttachStacktrace: true,
	}

	if err := sentry.Init(options); err != nil {
		sentryEnabled.Store(false)
		return func() {}, false, err
	}

	sentryEnabled.Store(true)
	return func() {
		sentry.Flush(2 * time.Second)
	}, true, nil
}

// CaptureError reports err with the given tags and extra context.
func CaptureError(err error, tags map[string]string, extra map[string]interface{}) {
	if err == nil || !sentryEnabled.Load() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		for key, value := range extra {
			scope.SetExtra(key, value)
		}
		sentry.CaptureException(err)
	})
}

// Enabled reports whether InitSentry configured a client.
func Enabled() bool {
	return sentryEnabled.Load()
}
