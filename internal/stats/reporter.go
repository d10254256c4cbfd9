package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// topLabelRows bounds the label histogram in the text report.
const topLabelRows = 10

// Reporter outputs statistics to console and/or file.
type Reporter struct {
	collector   *Collector
	intervalSec int
	exportFile  string
}

// NewReporter creates a new statistics reporter.
func NewReporter(collector *Collector, intervalSec int, exportFile string) *Reporter {
	return &Reporter{
		collector:   collector,
		intervalSec: intervalSec,
		exportFile:  exportFile,
	}
}

// StartPeriodicReport begins periodic statistics reporting in a goroutine.
func (r *Reporter) StartPeriodicReport(ctx context.Context) {
	if r.intervalSec <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Duration(r.intervalSec) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Println(r.FormatReport())
			}
		}
	}()
}

// PrintFinalReport prints the final statistics summary.
func (r *Reporter) PrintFinalReport() {
	r.collector.Finish()
	fmt.Println(r.FormatReport())
}

// ExportJSON exports statistics to a JSON file.
func (r *Reporter) ExportJSON() error {
	if r.exportFile == "" {
		return nil
	}

	snap := r.collector.Snapshot()

	export := map[string]interface{}{
		"run_id":       snap.RunID,
		"start_time":   snap.StartTime.Format(time.RFC3339),
		"end_time":     snap.EndTime.Format(time.RFC3339),
		"duration_sec": snap.Duration().Seconds(),
		"rats":         map[string]interface{}{},
		"labels":       snap.Labels,
		"sessions": map[string]interface{}{
			"closed":    snap.SessionsClosed,
			"flagged":   snap.SessionsFlagged,
			"anomalies": snap.Anomalies,
		},
		"input": map[string]interface{}{
			"files":   snap.InputFiles,
			"errors":  snap.InputErrors,
			"skipped": snap.SkippedRecords,
			"fatal":   snap.FatalErrors,
		},
	}

	totalReceived := snap.TotalReceived()
	duration := snap.Duration().Seconds()
	if duration > 0 {
		export["throughput_msg_per_sec"] = float64(totalReceived) / duration
	}

	rats := export["rats"].(map[string]interface{})
	for name, s := range snap.RATStats {
		rats[name] = map[string]interface{}{
			"received":    s.Received,
			"forwarded":   s.Forwarded,
			"released":    s.Released,
			"sink_errors": s.SinkErrors,
			"sanity":      s.Sanity,
			"unknown":     s.Unknown,
		}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats JSON: %w", err)
	}

	if err := os.WriteFile(r.exportFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file %s: %w", r.exportFile, err)
	}

	log.WithField("file", r.exportFile).Info("Statistics exported to JSON")
	return nil
}

// FormatReport generates a formatted statistics report string.
func (r *Reporter) FormatReport() string {
	snap := r.collector.Snapshot()
	elapsed := snap.Duration()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n=== diag-parser Statistics (run %s, elapsed: %s) ===\n",
		snap.RunID, elapsed.Round(time.Second)))
	sb.WriteString("Messages:\n")

	// Sort RAT names for consistent output
	ratNames := make([]string, 0, len(snap.RATStats))
	for name := range snap.RATStats {
		ratNames = append(ratNames, name)
	}
	sort.Strings(ratNames)

	for _, name := range ratNames {
		s := snap.RATStats[name]
		sb.WriteString(fmt.Sprintf("  %-6s recv=%-7d fwd=%-7d released=%-7d sanity=%-5d unknown=%-5d sink_err=%-5d\n",
			name+":", s.Received, s.Forwarded, s.Released, s.Sanity, s.Unknown, s.SinkErrors))
	}

	if top := snap.TopLabels(topLabelRows); len(top) > 0 {
		sb.WriteString("Top Labels:\n")
		for _, row := range top {
			sb.WriteString(fmt.Sprintf("  %-40s %d\n", row.Label, row.Count))
		}
	}

	sb.WriteString("Sessions:\n")
	sb.WriteString(fmt.Sprintf("  Closed: %d  |  Flagged: %d\n", snap.SessionsClosed, snap.SessionsFlagged))

	if len(snap.Anomalies) > 0 {
		names := make([]string, 0, len(snap.Anomalies))
		for name := range snap.Anomalies {
			names = append(names, name)
		}
		sort.Strings(names)

		sb.WriteString("Anomalies:\n")
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("  %-20s %d\n", name+":", snap.Anomalies[name]))
		}
	}

	sb.WriteString("Input:\n")
	sb.WriteString(fmt.Sprintf("  Files: %d  |  Errors: %d  |  Skipped records: %d\n",
		snap.InputFiles, snap.InputErrors, snap.SkippedRecords))

	totalReceived := snap.TotalReceived()
	if elapsed.Seconds() > 0 {
		sb.WriteString("Throughput:\n")
		sb.WriteString(fmt.Sprintf("  %.1f msg/s\n", float64(totalReceived)/elapsed.Seconds()))
	}

	sb.WriteString("================================================\n")
	return sb.String()
}
