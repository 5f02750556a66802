package browser

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
)

// waitForLogin checks current() every poll until the URL is no longer a login
// page. URL read errors are tolerated until the deadline since the tab may be
// mid-navigation.
func waitForLogin(ctx context.Context, timeout, poll time.Duration, current func(context.Context) (string, error)) (string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var lastURL string
	var lastErr error
	check := func() bool {
		u, err := current(ctx)
		if err != nil {
			lastErr = err
			return false
		}
		lastURL = u
		return u != "" && !IsLoginURL(u)
	}

	if check() {
		return lastURL, nil
	}
	for {
		select {
		case <-ctx.Done():
			return lastURL, ctx.Err()
		case <-deadline.C:
			if lastErr != nil && lastURL == "" {
				return "", fmt.Errorf("%w: %v", apperrors.ErrLoginTimeout, lastErr)
			}
			return lastURL, apperrors.ErrLoginTimeout
		case <-ticker.C:
			if check() {
				return lastURL, nil
			}
		}
	}
}
