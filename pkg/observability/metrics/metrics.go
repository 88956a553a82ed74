package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	codingProcessed        atomic.Int64
	codingValidationFailed atomic.Int64
	codingDegraded         atomic.Int64
	codingSubmitReady      atomic.Int64
	codingCacheHits        atomic.Int64
	codingSuggestionsTotal atomic.Int64
)

func ObserveCoding(suggestions int, submitReady, degraded bool) {
	codingProcessed.Add(1)
	codingSuggestionsTotal.Add(int64(suggestions))
	if submitReady {
		codingSubmitReady.Add(1)
	}
	if degraded {
		codingDegraded.Add(1)
	}
}

func ObserveValidationFailure() {
	codingValidationFailed.Add(1)
}

func ObserveCacheHit() {
	codingCacheHits.Add(1)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP aurevtech_coding_processed_total Number of coding requests processed.\n")
	fmt.Fprintf(w, "# TYPE aurevtech_coding_processed_total counter\n")
	fmt.Fprintf(w, "aurevtech_coding_processed_total %d\n", codingProcessed.Load())

	fmt.Fprintf(w, "# HELP aurevtech_coding_validation_failed_total Number of requests rejected by input validation.\n")
	fmt.Fprintf(w, "# TYPE aurevtech_coding_validation_failed_total counter\n")
	fmt.Fprintf(w, "aurevtech_coding_validation_failed_total %d\n", codingValidationFailed.Load())

	fmt.Fprintf(w, "# HELP aurevtech_coding_degraded_total Number of requests that completed with a degraded zero-score response.\n")
	fmt.Fprintf(w, "# TYPE aurevtech_coding_degraded_total counter\n")
	fmt.Fprintf(w, "aurevtech_coding_degraded_total %d\n", codingDegraded.Load())

	fmt.Fprintf(w, "# HELP aurevtech_coding_submit_ready_total Number of processed requests scored submit-ready.\n")
	fmt.Fprintf(w, "# TYPE aurevtech_coding_submit_ready_total counter\n")
	fmt.Fprintf(w, "aurevtech_coding_submit_ready_total %d\n", codingSubmitReady.Load())

	fmt.Fprintf(w, "# HELP aurevtech_coding_cache_hits_total Number of responses served from the result cache.\n")
	fmt.Fprintf(w, "# TYPE aurevtech_coding_cache_hits_total counter\n")
	fmt.Fprintf(w, "aurevtech_coding_cache_hits_total %d\n", codingCacheHits.Load())

	fmt.Fprintf(w, "# HELP aurevtech_coding_suggestions_total Number of code suggestions generated.\n")
	fmt.Fprintf(w, "# TYPE aurevtech_coding_suggestions_total counter\n")
	fmt.Fprintf(w, "aurevtech_coding_suggestions_total %d\n", codingSuggestionsTotal.Load())
}
