package rates

import (
	"context"
	"errors"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
)

// Refresher keeps a fixed list of pairs warm in the aggregator cache so a
// request never has to wait on an upstream provider for the common pairs.
type Refresher struct {
	aggregator *Aggregator
	period     time.Duration
	pairs      [][2]string
}

// NewRefresher parses the pair list ("USD-EUR,USD-BTC") into a refresher.
func NewRefresher(aggregator *Aggregator, period time.Duration, pairList string) (*Refresher, error) {
	var pairs [][2]string
	for _, raw := range strings.Split(pairList, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, "-")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.New("invalid refresh pair " + raw)
		}
		pairs = append(pairs, [2]string{strings.ToUpper(parts[0]), strings.ToUpper(parts[1])})
	}
	if len(pairs) == 0 {
		return nil, errors.New("no refresh pairs configured")
	}

	return &Refresher{aggregator: aggregator, period: period, pairs: pairs}, nil
}

// StartLoop refreshes every configured pair once per period until ctx is
// cancelled. Provider failures are logged and retried on the next tick.
func (r *Refresher) StartLoop(ctx context.Context) error {
	if r.period <= 0 {
		return errors.New("refresh period not set")
	}

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	logger.WithFields(logger.Fields{
		"period": r.period.String(),
		"pairs":  len(r.pairs),
	}).Info("Starting rate refresh loop")

	for {
		select {
		case <-ctx.Done():
			logger.Info("rate refresh loop stopped")
			return nil

		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

func (r *Refresher) refreshAll(ctx context.Context) {
	for _, pair := range r.pairs {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.aggregator.RefreshRate(ctx, pair[0], pair[1]); err != nil {
			logger.WithError(err).WithFields(logger.Fields{
				"from": pair[0],
				"to":   pair[1],
			}).Warn("Failed to refresh rate")
		}
	}
}
