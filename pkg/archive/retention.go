package archive

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const DefaultRetentionSchedule = "@hourly"

// Retention periodically deletes archives older than maxAge.
type Retention struct {
	cron    *cron.Cron
	sweeper Sweeper
	maxAge  time.Duration
	log     *logrus.Logger
	now     func() time.Time
}

func NewRetention(sweeper Sweeper, maxAge time.Duration, schedule string, log *logrus.Logger) (*Retention, error) {
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}

	r := &Retention{
		cron:    cron.New(),
		sweeper: sweeper,
		maxAge:  maxAge,
		log:     log,
		now:     time.Now,
	}

	if _, err := r.cron.AddFunc(schedule, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			r.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Error("Archive retention sweep failed")
		}
	}); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Retention) RunOnce(ctx context.Context) (int, error) {
	removed, err := r.sweeper.Sweep(ctx, r.now().Add(-r.maxAge))
	if err != nil {
		return removed, err
	}

	if removed > 0 {
		r.log.WithFields(logrus.Fields{
			"removed": removed,
			"max_age": r.maxAge.String(),
		}).Info("Expired archives removed")
	}

	return removed, nil
}

func (r *Retention) Start() {
	r.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to expire.
func (r *Retention) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}
