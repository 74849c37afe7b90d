package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	assessmentsCompleted atomic.Int64
	assessmentsFailed    atomic.Int64
	liveScores           atomic.Int64
	fallbackScores       atomic.Int64
	dataQualityWarnings  atomic.Int64
	simulationRuns       atomic.Int64
	extractionRuns       atomic.Int64
	extractionFailures   atomic.Int64
)

func IncAssessmentCompleted() { assessmentsCompleted.Add(1) }
func IncAssessmentFailed()    { assessmentsFailed.Add(1) }
func IncLiveScore()           { liveScores.Add(1) }
func IncFallbackScore()       { fallbackScores.Add(1) }
func IncDataQualityWarning()  { dataQualityWarnings.Add(1) }
func IncSimulationRun()       { simulationRuns.Add(1) }
func IncExtractionRun()       { extractionRuns.Add(1) }
func IncExtractionFailure()   { extractionFailures.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "# HELP earlyguard_assessments_completed_total Assessments that reached the report step.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_assessments_completed_total counter\n")
	fmt.Fprintf(w, "earlyguard_assessments_completed_total %d\n", assessmentsCompleted.Load())

	fmt.Fprintf(w, "# HELP earlyguard_assessments_failed_total Scoring runs that surfaced an error to the caller.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_assessments_failed_total counter\n")
	fmt.Fprintf(w, "earlyguard_assessments_failed_total %d\n", assessmentsFailed.Load())

	fmt.Fprintf(w, "# HELP earlyguard_domain_scores_live_total Domain scores served by a live prediction call.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_domain_scores_live_total counter\n")
	fmt.Fprintf(w, "earlyguard_domain_scores_live_total %d\n", liveScores.Load())

	fmt.Fprintf(w, "# HELP earlyguard_domain_scores_fallback_total Domain scores substituted by the local fallback heuristic.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_domain_scores_fallback_total counter\n")
	fmt.Fprintf(w, "earlyguard_domain_scores_fallback_total %d\n", fallbackScores.Load())

	fmt.Fprintf(w, "# HELP earlyguard_data_quality_warnings_total Malformed input values substituted at payload construction.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_data_quality_warnings_total counter\n")
	fmt.Fprintf(w, "earlyguard_data_quality_warnings_total %d\n", dataQualityWarnings.Load())

	fmt.Fprintf(w, "# HELP earlyguard_simulation_runs_total What-if simulations executed.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_simulation_runs_total counter\n")
	fmt.Fprintf(w, "earlyguard_simulation_runs_total %d\n", simulationRuns.Load())

	fmt.Fprintf(w, "# HELP earlyguard_extraction_runs_total Report images submitted for recognition.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_extraction_runs_total counter\n")
	fmt.Fprintf(w, "earlyguard_extraction_runs_total %d\n", extractionRuns.Load())

	fmt.Fprintf(w, "# HELP earlyguard_extraction_failures_total Recognition calls that failed and fell back to manual entry.\n")
	fmt.Fprintf(w, "# TYPE earlyguard_extraction_failures_total counter\n")
	fmt.Fprintf(w, "earlyguard_extraction_failures_total %d\n", extractionFailures.Load())
}
