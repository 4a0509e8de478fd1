package reconcile

import (
	"fmt"
	"math"
)

// Discrepancy thresholds, in percent of the API-reported quantity.
const (
	// WarningThresholdPercent is the largest discrepancy still considered
	// agreement between the sources.
	WarningThresholdPercent = 5.0
	// ConflictThresholdPercent is the largest discrepancy still treated as
	// drift; anything above is a conflict flagged for manual review.
	ConflictThresholdPercent = 15.0
)

// Quality scores per outcome class. The asymmetry between api_only and
// ui_only is deliberate: the API is live, the report may be stale.
const (
	scoreValidated = 100
	scoreWarning   = 85
	scoreConflict  = 60
	scoreAPIOnly   = 100
	scoreUIOnly    = 80
)

// Compare produces the comparison outcome for one identity given the API
// fact and the report fact, either of which may be nil.
//
// When both facts are present the chosen fact is always the API fact: the
// report never overrides a fresh API reading, it only fills gaps and detects
// drift. Passing two facts with different identities is an invariant
// violation and is fatal to the batch.
func Compare(apiFact, reportFact *Fact) (Outcome, error) {
	switch {
	case apiFact == nil && reportFact == nil:
		// Callers must not persist this identity.
		return Outcome{Status: StatusNoData, QualityScore: 0}, nil

	case reportFact == nil:
		chosen := apiFact.RawFact
		return Outcome{
			Status:       StatusAPIOnly,
			QualityScore: scoreAPIOnly,
			ChosenFact:   &chosen,
		}, nil

	case apiFact == nil:
		chosen := reportFact.RawFact
		return Outcome{
			Status:       StatusUIOnly,
			QualityScore: scoreUIOnly,
			ChosenFact:   &chosen,
		}, nil
	}

	if apiFact.Identity != reportFact.Identity {
		return Outcome{}, fmt.Errorf("identity mismatch: api=%s report=%s",
			apiFact.Identity, reportFact.Identity)
	}

	discrepancy := discrepancyPercent(apiFact.Available, reportFact.Available)
	chosen := apiFact.RawFact
	alternate := reportFact.RawFact

	outcome := Outcome{
		DiscrepancyPercent: &discrepancy,
		ChosenFact:         &chosen,
	}

	switch {
	case discrepancy <= WarningThresholdPercent:
		outcome.Status = StatusValidated
		outcome.QualityScore = scoreValidated
	case discrepancy <= ConflictThresholdPercent:
		outcome.Status = StatusWarning
		outcome.QualityScore = scoreWarning
		outcome.AlternateFact = &alternate
	default:
		outcome.Status = StatusConflict
		outcome.QualityScore = scoreConflict
		outcome.AlternateFact = &alternate
	}

	return outcome, nil
}

// discrepancyPercent is the relative difference between the two reported
// quantities, anchored on the API value. The max(api, 1) denominator keeps
// a zero API reading from dividing by zero.
func discrepancyPercent(apiAvailable, reportAvailable int) float64 {
	diff := math.Abs(float64(apiAvailable - reportAvailable))
	return diff / math.Max(float64(apiAvailable), 1) * 100
}
