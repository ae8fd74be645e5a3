package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// Job is one named periodic task.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// NewCronParser accepts six-field expressions with a leading seconds field.
func NewCronParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
}

// NewScheduler registers jobs on a cron bound to the fx lifecycle. Each job runs in its own
// goroutine so a slow run never delays the others.
func NewScheduler(lc fx.Lifecycle, jobs ...Job) (*cron.Cron, error) {
	c := cron.New(cron.WithParser(NewCronParser()))

	for _, job := range jobs {
		job := job
		_, err := c.AddFunc(job.Schedule, func() {
			go func() {
				if err := job.Run(context.Background()); err != nil {
					log.Error().Err(err).Str("job", job.Name).Msg("Error during scheduled job")
				}
			}()
		})
		if err != nil {
			log.Error().Err(err).Str("job", job.Name).Str("schedule", job.Schedule).Msg("Failed to add cron job")
			return nil, fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
		}
		log.Info().Str("job", job.Name).Str("schedule", job.Schedule).Msg("Scheduled job")
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Int("jobs", len(jobs)).Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})

	return c, nil
}
