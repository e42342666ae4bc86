// Package config decodes and validates the daemon's JSON configuration
// document (spec.md §6), arriving over the config arena channel rather
// than a file on disk — the teacher's YAML rule files become a single
// JSON object delivered over pub/sub, but the struct-per-concept layout
// and explicit validation pass are kept from internal/config/types.go
// and loader.go in the teacher.
package config

import (
	"encoding/json"
	"time"
)

// Global is the daemon's single configuration document.
type Global struct {
	SavePath                  string `json:"savepath"`
	DefaultMaxLogfileSize     string `json:"default_max_logfile_size,omitempty"`
	DefaultMaxLogfileDuration string `json:"default_max_logfile_duration,omitempty"`
	StartTimeMono             *int64 `json:"start_time_mono,omitempty"`
	Rules                     []Rule `json:"rules"`

	// Supplemental keys (SPEC_FULL.md §6), all optional.
	StatusListenAddress         string `json:"status_listen_address,omitempty"`
	StatusListenPort            int    `json:"status_listen_port,omitempty"`
	PipelineDispatchConcurrency int    `json:"pipeline_dispatch_concurrency,omitempty"`
	DiscoveryPollInterval       string `json:"discovery_poll_interval,omitempty"`

	// DefaultMaxLogfileSizeBytes and DefaultMaxLogfileDurationVal are
	// populated by Parse after successful validation.
	DefaultMaxLogfileSizeBytes   uint64        `json:"-"`
	DefaultMaxLogfileDurationVal time.Duration `json:"-"`
}

// Rule binds zero or more discovered sources (matching protocol+topic)
// to a list of policies (spec.md §3).
type Rule struct {
	Protocol           string   `json:"protocol"`
	Topic              string   `json:"topic"`
	Policies           []Policy `json:"policies"`
	MaxLogfileSize     string   `json:"max_logfile_size,omitempty"`
	MaxLogfileDuration string   `json:"max_logfile_duration,omitempty"`
	TriggerControlTopic string  `json:"trigger_control_topic,omitempty"`

	MaxLogfileSizeBytes   uint64        `json:"-"`
	MaxLogfileDurationVal time.Duration `json:"-"`
}

// Policy is a declarative policy instance spec (spec.md §3/§4.4).
type Policy struct {
	Type                string          `json:"type"`
	Args                json.RawMessage `json:"args,omitempty"`
	Triggers            []Trigger       `json:"triggers,omitempty"`
	TriggerControlTopic string          `json:"trigger_control_topic,omitempty"`

	CountArgs CountArgs
	TimeArgs  TimeArgs
}

// CountArgs are the args for a `count` policy.
type CountArgs struct {
	SavePrev int `json:"save_prev"`
	SaveNext int `json:"save_next"`
}

// TimeArgs are the args for a `time` policy, parsed from duration strings.
type TimeArgs struct {
	SavePrev string `json:"save_prev"`
	SaveNext string `json:"save_next"`

	SavePrevVal time.Duration `json:"-"`
	SaveNextVal time.Duration `json:"-"`
}

// Trigger is a declarative trigger instance spec (spec.md §3/§4.3).
type Trigger struct {
	Type        string          `json:"type"`
	Args        json.RawMessage `json:"args,omitempty"`
	ControlTopic string         `json:"control_topic,omitempty"`

	PubsubArgs PubsubTriggerArgs
	RateArgs   RateTriggerArgs
	CronArgs   CronTriggerArgs
}

// PubsubTriggerArgs are the args for a `pubsub` trigger.
type PubsubTriggerArgs struct {
	Topic string `json:"topic"`
}

// RateTriggerArgs are the args for a `rate` trigger.
type RateTriggerArgs struct {
	HZ float64 `json:"hz"`
}

// CronTriggerArgs are the args for a `cron` trigger.
type CronTriggerArgs struct {
	Pattern string `json:"pattern"`
}

const (
	ProtocolPubsub = "pubsub"
	ProtocolLog    = "log"
	ProtocolCfg    = "cfg"

	PolicySaveAll = "save_all"
	PolicyDropAll = "drop_all"
	PolicyCount   = "count"
	PolicyTime    = "time"

	TriggerPubsub = "pubsub"
	TriggerRate   = "rate"
	TriggerCron   = "cron"
)
