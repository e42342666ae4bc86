// Package policy implements the four policy kinds of spec.md §4.4:
// save_all, drop_all, count, and time. Each is a sum-type variant
// dispatched by a single pipeline worker (spec.md §9: "Policies and
// triggers are sum types... no subclass hierarchy is needed"), grounded
// on the pack's streaming-policy shape (mutex-guarded bounded buffer,
// explicit flush on trigger, idempotent-by-id emission) rather than a
// generic observer/listener hierarchy.
package policy

import (
	"github.com/colebrumley/a0logd/internal/arena"
	"github.com/colebrumley/a0logd/internal/config"
)

// Instance is a per-(source,rule) policy instance (spec.md §3).
// OnPacket and OnFire both return, in monotonic order, the packets this
// policy instance decides to emit as a result of the event.
type Instance interface {
	OnPacket(p arena.Packet) []arena.Packet
	OnFire(atMonoNS int64) []arena.Packet
}

// New builds a policy instance from its configuration.
func New(cfg config.Policy) (Instance, error) {
	switch cfg.Type {
	case config.PolicySaveAll:
		return SaveAll{}, nil
	case config.PolicyDropAll:
		return DropAll{}, nil
	case config.PolicyCount:
		return NewCount(cfg.CountArgs.SavePrev, cfg.CountArgs.SaveNext), nil
	case config.PolicyTime:
		return NewTime(cfg.TimeArgs.SavePrevVal, cfg.TimeArgs.SaveNextVal), nil
	default:
		return nil, policyTypeError(cfg.Type)
	}
}

type policyTypeError string

func (e policyTypeError) Error() string {
	return "unknown policy type: " + string(e)
}

// SaveAll saves every packet it observes.
type SaveAll struct{}

func (SaveAll) OnPacket(p arena.Packet) []arena.Packet { return []arena.Packet{p} }
func (SaveAll) OnFire(atMonoNS int64) []arena.Packet   { return nil }

// DropAll saves nothing.
type DropAll struct{}

func (DropAll) OnPacket(p arena.Packet) []arena.Packet { return nil }
func (DropAll) OnFire(atMonoNS int64) []arena.Packet   { return nil }
