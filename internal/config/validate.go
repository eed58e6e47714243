package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		problems = append(problems, "paths.base_dir must be set")
	}
	if c.Pipeline.IncomingCoolDownMinutes < 0 {
		problems = append(problems, "pipeline.incoming_cool_down_minutes must not be negative")
	}
	if c.Pipeline.FinishedCoolDownMinutes < 0 {
		problems = append(problems, "pipeline.finished_cool_down_minutes must not be negative")
	}
	if c.Pipeline.TickIntervalSeconds <= 0 {
		problems = append(problems, "pipeline.tick_interval_seconds must be positive")
	}
	if c.Pipeline.ScrapeIntervalSeconds <= 0 {
		problems = append(problems, "pipeline.scrape_interval_seconds must be positive")
	}

	seen := make(map[string]struct{}, len(c.Streams))
	for i, stream := range c.Streams {
		if stream.Name == "" {
			problems = append(problems, fmt.Sprintf("streams[%d].name must be set", i))
			continue
		}
		if strings.ContainsAny(stream.Name, `/\`) {
			problems = append(problems, fmt.Sprintf("streams[%d].name %q must not contain path separators", i, stream.Name))
		}
		if _, dup := seen[stream.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate stream name %q", stream.Name))
		}
		seen[stream.Name] = struct{}{}
		if strings.TrimSpace(stream.OutputFolder) == "" {
			problems = append(problems, fmt.Sprintf("streams[%d].output_folder must be set", i))
		}
		if strings.TrimSpace(stream.Profile) == "" {
			problems = append(problems, fmt.Sprintf("streams[%d].profile must be set", i))
		}
	}

	qseen := make(map[string]struct{}, len(c.Quarantines))
	for i, quarantine := range c.Quarantines {
		if strings.TrimSpace(quarantine.Path) == "" {
			problems = append(problems, fmt.Sprintf("quarantines[%d].path must be set", i))
			continue
		}
		if _, dup := qseen[quarantine.Path]; dup {
			problems = append(problems, fmt.Sprintf("duplicate quarantine path %q", quarantine.Path))
		}
		qseen[quarantine.Path] = struct{}{}
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
