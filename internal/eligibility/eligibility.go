// Package eligibility computes whether a donor may currently donate given
// their last donation date and the configured cooldown window.
package eligibility

import "time"

// DefaultCooldown is the standard wait between whole-blood donations.
const DefaultCooldown = 90 * 24 * time.Hour

// Evaluator carries the cooldown so the interval is configuration, not a
// per-call argument.
type Evaluator struct {
	cooldown time.Duration
}

// New builds an Evaluator. A non-positive cooldown falls back to the default.
func New(cooldown time.Duration) Evaluator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return Evaluator{cooldown: cooldown}
}

// Assessment is the result of an eligibility check. DaysSinceLastDonation and
// NextEligibleDate are nil for donors with no recorded donation.
type Assessment struct {
	Eligible              bool       `json:"is_eligible"`
	DaysSinceLastDonation *int       `json:"days_since_last_donation,omitempty"`
	NextEligibleDate      *time.Time `json:"next_eligible_date,omitempty"`
	DaysRemaining         int        `json:"days_remaining"`
}

// Evaluate is a pure function of the last donation date and the reference
// time. A donor with no recorded donation is always eligible; otherwise
// eligibility begins exactly when the cooldown has fully elapsed.
func (e Evaluator) Evaluate(lastDonation *time.Time, now time.Time) Assessment {
	if lastDonation == nil {
		return Assessment{Eligible: true}
	}

	since := now.Sub(*lastDonation)
	days := int(since.Hours() / 24)
	next := lastDonation.Add(e.cooldown)

	if since >= e.cooldown {
		return Assessment{
			Eligible:              true,
			DaysSinceLastDonation: &days,
			NextEligibleDate:      &next,
		}
	}

	remaining := next.Sub(now)
	// Round partial days up so "eligible tomorrow morning" reads as 1, not 0.
	daysRemaining := int(remaining.Hours() / 24)
	if remaining%(24*time.Hour) != 0 {
		daysRemaining++
	}

	return Assessment{
		Eligible:              false,
		DaysSinceLastDonation: &days,
		NextEligibleDate:      &next,
		DaysRemaining:         daysRemaining,
	}
}
