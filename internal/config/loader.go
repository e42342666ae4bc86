package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
)

// cronParser accepts the same 6-field, seconds-first patterns as the
// cron trigger, so an invalid pattern fails at config parse time.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Parse decodes and validates a configuration document (spec.md §6/§7:
// "malformed JSON, missing savepath, or unknown policy/trigger type ->
// startup fails with a diagnostic"). Unknown top-level keys are
// permitted and ignored by encoding/json by default.
func Parse(doc []byte) (*Global, error) {
	var g Global
	if err := json.Unmarshal(doc, &g); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if g.SavePath == "" {
		return nil, fmt.Errorf("config: savepath is required")
	}

	if g.DefaultMaxLogfileSize != "" {
		n, err := humanize.ParseBytes(g.DefaultMaxLogfileSize)
		if err != nil {
			return nil, fmt.Errorf("config: default_max_logfile_size: %w", err)
		}
		g.DefaultMaxLogfileSizeBytes = n
	}
	if g.DefaultMaxLogfileDuration != "" {
		d, err := time.ParseDuration(g.DefaultMaxLogfileDuration)
		if err != nil {
			return nil, fmt.Errorf("config: default_max_logfile_duration: %w", err)
		}
		g.DefaultMaxLogfileDurationVal = d
	}

	for i := range g.Rules {
		if err := validateRule(&g.Rules[i]); err != nil {
			return nil, fmt.Errorf("config: rules[%d]: %w", i, err)
		}
	}

	return &g, nil
}

func validateRule(r *Rule) error {
	switch r.Protocol {
	case ProtocolPubsub, ProtocolLog, ProtocolCfg:
	default:
		return fmt.Errorf("unknown protocol %q", r.Protocol)
	}
	if r.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if len(r.Policies) == 0 {
		return fmt.Errorf("at least one policy is required")
	}

	if r.MaxLogfileSize != "" {
		n, err := humanize.ParseBytes(r.MaxLogfileSize)
		if err != nil {
			return fmt.Errorf("max_logfile_size: %w", err)
		}
		r.MaxLogfileSizeBytes = n
	}
	if r.MaxLogfileDuration != "" {
		d, err := time.ParseDuration(r.MaxLogfileDuration)
		if err != nil {
			return fmt.Errorf("max_logfile_duration: %w", err)
		}
		r.MaxLogfileDurationVal = d
	}

	for i := range r.Policies {
		if err := validatePolicy(&r.Policies[i]); err != nil {
			return fmt.Errorf("policies[%d]: %w", i, err)
		}
	}
	return nil
}

func validatePolicy(p *Policy) error {
	switch p.Type {
	case PolicySaveAll, PolicyDropAll:
		return nil
	case PolicyCount:
		if len(p.Args) > 0 {
			if err := json.Unmarshal(p.Args, &p.CountArgs); err != nil {
				return fmt.Errorf("count args: %w", err)
			}
		}
		if p.CountArgs.SavePrev < 0 || p.CountArgs.SaveNext < 0 {
			return fmt.Errorf("count: save_prev and save_next must be >= 0")
		}
	case PolicyTime:
		if len(p.Args) > 0 {
			if err := json.Unmarshal(p.Args, &p.TimeArgs); err != nil {
				return fmt.Errorf("time args: %w", err)
			}
		}
		if p.TimeArgs.SavePrev != "" {
			d, err := time.ParseDuration(p.TimeArgs.SavePrev)
			if err != nil {
				return fmt.Errorf("time save_prev: %w", err)
			}
			p.TimeArgs.SavePrevVal = d
		}
		if p.TimeArgs.SaveNext != "" {
			d, err := time.ParseDuration(p.TimeArgs.SaveNext)
			if err != nil {
				return fmt.Errorf("time save_next: %w", err)
			}
			p.TimeArgs.SaveNextVal = d
		}
	default:
		return fmt.Errorf("unknown policy type %q", p.Type)
	}

	for i := range p.Triggers {
		if err := validateTrigger(&p.Triggers[i]); err != nil {
			return fmt.Errorf("triggers[%d]: %w", i, err)
		}
	}
	return nil
}

func validateTrigger(t *Trigger) error {
	switch t.Type {
	case TriggerPubsub:
		if err := json.Unmarshal(t.Args, &t.PubsubArgs); err != nil {
			return fmt.Errorf("pubsub trigger args: %w", err)
		}
		if t.PubsubArgs.Topic == "" {
			return fmt.Errorf("pubsub trigger: topic is required")
		}
	case TriggerRate:
		if err := json.Unmarshal(t.Args, &t.RateArgs); err != nil {
			return fmt.Errorf("rate trigger args: %w", err)
		}
		if t.RateArgs.HZ <= 0 {
			return fmt.Errorf("rate trigger: hz must be positive")
		}
	case TriggerCron:
		if err := json.Unmarshal(t.Args, &t.CronArgs); err != nil {
			return fmt.Errorf("cron trigger args: %w", err)
		}
		if t.CronArgs.Pattern == "" {
			return fmt.Errorf("cron trigger: pattern is required")
		}
		if _, err := cronParser.Parse(t.CronArgs.Pattern); err != nil {
			return fmt.Errorf("cron trigger: invalid pattern %q: %w", t.CronArgs.Pattern, err)
		}
	default:
		return fmt.Errorf("unknown trigger type %q", t.Type)
	}
	return nil
}
