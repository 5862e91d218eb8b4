package enums

import "fmt"

// OnboardingStatus maps to the onboarding_status_enum enum in Postgres.
type OnboardingStatus string

const (
	OnboardingStatusInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingStatusLive       OnboardingStatus = "LIVE"
)

var validOnboardingStatuses = []OnboardingStatus{
	OnboardingStatusInProgress,
	OnboardingStatusLive,
}

// String implements fmt.Stringer.
func (s OnboardingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OnboardingStatus.
func (s OnboardingStatus) IsValid() bool {
	for _, candidate := range validOnboardingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOnboardingStatus converts raw input into an OnboardingStatus.
func ParseOnboardingStatus(value string) (OnboardingStatus, error) {
	for _, candidate := range validOnboardingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid onboarding status %q", value)
}
