package enums

import "fmt"

// PipelineStage maps to the pipeline_stage_enum enum in Postgres.
type PipelineStage string

const (
	PipelineStagePendingFirstVisit PipelineStage = "PENDING_FIRST_VISIT"
	PipelineStageContacted         PipelineStage = "CONTACTED"
	PipelineStageMeetingScheduled  PipelineStage = "MEETING_SCHEDULED"
	PipelineStageFollowUpNeeded    PipelineStage = "FOLLOW_UP_NEEDED"
	PipelineStageContractSent      PipelineStage = "CONTRACT_SENT"
	PipelineStageWon               PipelineStage = "WON"
	PipelineStageLost              PipelineStage = "LOST"
)

var validPipelineStages = []PipelineStage{
	PipelineStagePendingFirstVisit,
	PipelineStageContacted,
	PipelineStageMeetingScheduled,
	PipelineStageFollowUpNeeded,
	PipelineStageContractSent,
	PipelineStageWon,
	PipelineStageLost,
}

// String implements fmt.Stringer.
func (s PipelineStage) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PipelineStage.
func (s PipelineStage) IsValid() bool {
	for _, candidate := range validPipelineStages {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the stage ends the sales funnel.
func (s PipelineStage) IsTerminal() bool {
	return s == PipelineStageWon || s == PipelineStageLost
}

// ParsePipelineStage converts raw input into a PipelineStage.
func ParsePipelineStage(value string) (PipelineStage, error) {
	for _, candidate := range validPipelineStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pipeline stage %q", value)
}
