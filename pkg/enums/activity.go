package enums

import "fmt"

// ActivityType maps to the activity_type_enum enum in Postgres.
type ActivityType string

const (
	ActivityTypeCall     ActivityType = "CALL"
	ActivityTypeVisit    ActivityType = "VISIT"
	ActivityTypeMeeting  ActivityType = "MEETING"
	ActivityTypeEmail    ActivityType = "EMAIL"
	ActivityTypeWhatsApp ActivityType = "WHATSAPP"
)

var validActivityTypes = []ActivityType{
	ActivityTypeCall,
	ActivityTypeVisit,
	ActivityTypeMeeting,
	ActivityTypeEmail,
	ActivityTypeWhatsApp,
}

// String implements fmt.Stringer.
func (t ActivityType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ActivityType.
func (t ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}

// ActivityOutcome maps to the activity_outcome_enum enum in Postgres.
type ActivityOutcome string

const (
	ActivityOutcomePositive       ActivityOutcome = "POSITIVE"
	ActivityOutcomeNeutral        ActivityOutcome = "NEUTRAL"
	ActivityOutcomeNegative       ActivityOutcome = "NEGATIVE"
	ActivityOutcomeFollowUpNeeded ActivityOutcome = "FOLLOW_UP_NEEDED"
	ActivityOutcomeNoAnswer       ActivityOutcome = "NO_ANSWER"
)

var validActivityOutcomes = []ActivityOutcome{
	ActivityOutcomePositive,
	ActivityOutcomeNeutral,
	ActivityOutcomeNegative,
	ActivityOutcomeFollowUpNeeded,
	ActivityOutcomeNoAnswer,
}

// String implements fmt.Stringer.
func (o ActivityOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is a known ActivityOutcome.
func (o ActivityOutcome) IsValid() bool {
	for _, candidate := range validActivityOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseActivityOutcome converts raw input into an ActivityOutcome.
func ParseActivityOutcome(value string) (ActivityOutcome, error) {
	for _, candidate := range validActivityOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity outcome %q", value)
}
