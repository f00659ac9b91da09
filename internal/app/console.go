package app

import (
	"fmt"

	"github.com/MrSnakeDoc/tally/internal/config"
	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/monitorapi"
	"github.com/MrSnakeDoc/tally/internal/profile"
)

// NewConsole builds the monitoring API client and the console controller
// described by cfg. extra supplies the optional collaborators (persister,
// auditor, thumbnail cache); its interval and profile fields are ignored.
func NewConsole(cfg *config.ClientConfig, log logger.Logger, extra console.Options) (*console.Controller, *monitorapi.Client, error) {
	p, err := profile.Resolve(cfg.Profile, cfg.ProfileFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	client := monitorapi.New(monitorapi.Options{
		BaseURL:   cfg.APIBase,
		Timeout:   cfg.APITimeout,
		UserAgent: cfg.UserAgent,
	}, log.With(logger.String("component", "monitorapi")))

	c := console.New(client, console.Options{
		Operator:        cfg.Operator,
		Profile:         p,
		RefreshInterval: cfg.RefreshInterval,
		HealthInterval:  cfg.HealthInterval,
		MetricsInterval: cfg.MetricsInterval,
		MetricsWindow:   cfg.MetricsWindow,
		NotificationTTL: cfg.NotificationTTL,
		Debug:           cfg.Debug,
		Persister:       extra.Persister,
		Auditor:         extra.Auditor,
		Thumbnails:      extra.Thumbnails,
	}, log)

	return c, client, nil
}
