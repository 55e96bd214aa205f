package llm

import (
	"context"
	"time"

	"chefmind/internal/domain"
)

// TierPolicy turns a caller tier into a model choice and a latency shape.
type TierPolicy interface {
	Model(tier domain.Tier) string
	Delay(tier domain.Tier) time.Duration
}

// CapabilityPolicy gives the executive tier a more capable model.
type CapabilityPolicy struct {
	ExecutiveModel string
	StandardModel  string
}

func (p CapabilityPolicy) Model(tier domain.Tier) string {
	if tier == domain.TierExecutive {
		return p.ExecutiveModel
	}
	return p.StandardModel
}

func (p CapabilityPolicy) Delay(domain.Tier) time.Duration {
	return 0
}

// QueuePolicy uses one model for everyone and holds the standard tier back.
type QueuePolicy struct {
	ModelName     string
	StandardDelay time.Duration
}

func (p QueuePolicy) Model(domain.Tier) string {
	return p.ModelName
}

func (p QueuePolicy) Delay(tier domain.Tier) time.Duration {
	if tier == domain.TierExecutive {
		return 0
	}
	return p.StandardDelay
}

// FixedPolicy always uses the same model with no delay.
type FixedPolicy string

func (p FixedPolicy) Model(domain.Tier) string {
	return string(p)
}

func (p FixedPolicy) Delay(domain.Tier) time.Duration {
	return 0
}

// Wait sleeps for the policy delay of tier, returning early on cancellation.
func Wait(ctx context.Context, policy TierPolicy, tier domain.Tier) error {
	return sleep(ctx, policy.Delay(tier))
}
