package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateMerchant   OutboxAggregateType = "merchant"
	AggregatePipeline   OutboxAggregateType = "pipeline"
	AggregateOnboarding OutboxAggregateType = "onboarding"
	AggregatePayout     OutboxAggregateType = "payout_entry"
	AggregateActivity   OutboxAggregateType = "activity"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateMerchant,
	AggregatePipeline,
	AggregateOnboarding,
	AggregatePayout,
	AggregateActivity,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
type OutboxEventType string

const (
	EventMerchantCreated       OutboxEventType = "merchant_created"
	EventMerchantRepReassigned OutboxEventType = "merchant_rep_reassigned"
	EventPipelineStageChanged  OutboxEventType = "pipeline_stage_changed"
	EventOnboardingWentLive    OutboxEventType = "onboarding_went_live"
	EventPayoutRecorded        OutboxEventType = "payout_recorded"
	EventActivityLogged        OutboxEventType = "activity_logged"
)

var validOutboxEventTypes = []OutboxEventType{
	EventMerchantCreated,
	EventMerchantRepReassigned,
	EventPipelineStageChanged,
	EventOnboardingWentLive,
	EventPayoutRecorded,
	EventActivityLogged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
