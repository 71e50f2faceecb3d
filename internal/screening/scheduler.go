package screening

import (
	"time"

	"github.com/compliance/pep-registry/internal/domain"
)

// NextReviewDate computes the next mandatory EDD review date. An absent
// last review forces an immediate review: the result is the asOf date
// itself. Otherwise the frequency's interval is added with end-of-month
// clamping, so Jan 31 plus one month lands on Feb 28 or 29.
func NextReviewDate(lastReview *time.Time, frequency domain.MonitoringFrequency, asOf time.Time) time.Time {
	if lastReview == nil {
		return truncateToDay(asOf)
	}
	return addMonthsClamped(truncateToDay(*lastReview), frequency.Months())
}

// DueForReview selects the records the periodic sweep must flag: active
// high-risk PEPs whose next review date has passed and that are not
// already flagged. Excluding already-flagged records makes repeated
// sweeps idempotent.
func DueForReview(peps []*domain.PEPRecord, asOf time.Time) []*domain.PEPRecord {
	cutoff := truncateToDay(asOf)
	due := make([]*domain.PEPRecord, 0)
	for _, pep := range peps {
		if pep.RiskTier != domain.RiskTierHigh {
			continue
		}
		if pep.Status != domain.StatusActive {
			continue
		}
		if pep.EDDStatus == domain.EDDReviewNeeded {
			continue
		}
		if pep.NextEDDReviewDate.After(cutoff) {
			continue
		}
		due = append(due, pep)
	}
	return due
}

// addMonthsClamped adds calendar months, clamping the day to the last
// valid day of the target month. time.AddDate would normalize Jan 31 + 1
// month into Mar 2/3 instead.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// daysInMonth returns the number of days in the given month. Day zero of
// the following month is the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
