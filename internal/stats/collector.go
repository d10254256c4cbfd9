package stats

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"diag-parser/internal/session"
)

// RATStats holds per-RAT message statistics.
type RATStats struct {
	Received   uint64
	Forwarded  uint64
	Released   uint64
	SinkErrors uint64
	Sanity     uint64
	Unknown    uint64
}

// LabelCount is one row of the label histogram.
type LabelCount struct {
	Label string
	Count uint64
}

// Exporter receives counter updates as they are recorded. *statsd.Client
// satisfies it.
type Exporter interface {
	Increment(bucket string)
	Count(bucket string, n interface{})
}

// Collector aggregates operational statistics of one capture run.
type Collector struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time

	RATStats map[string]*RATStats
	Labels   map[string]uint64

	SessionsClosed  uint64
	SessionsFlagged uint64
	Anomalies       map[string]uint64

	InputFiles     uint64
	InputErrors    uint64
	SkippedRecords uint64
	FatalErrors    uint64

	exporter Exporter
	mu       sync.Mutex
}

// NewCollector creates a new statistics collector with a fresh run ID.
func NewCollector() *Collector {
	return &Collector{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		RATStats:  make(map[string]*RATStats),
		Labels:    make(map[string]uint64),
		Anomalies: make(map[string]uint64),
	}
}

// SetExporter forwards every subsequent counter update to e.
func (c *Collector) SetExporter(e Exporter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exporter = e
}

func (c *Collector) getOrCreate(rat string) *RATStats {
	if _, ok := c.RATStats[rat]; !ok {
		c.RATStats[rat] = &RATStats{}
	}
	return c.RATStats[rat]
}

func (c *Collector) export(parts ...string) {
	if c.exporter == nil {
		return
	}
	c.exporter.Increment(strings.ToLower(strings.Join(parts, ".")))
}

// RecordReceived records a message entering the router.
func (c *Collector) RecordReceived(rat string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(rat).Received++
	c.export("rat", rat, "received")
}

// RecordForwarded records a message handed to the output sink.
func (c *Collector) RecordForwarded(rat string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(rat).Forwarded++
	c.export("rat", rat, "forwarded")
}

// RecordReleased records a message dropped without forwarding.
func (c *Collector) RecordReleased(rat string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(rat).Released++
	c.export("rat", rat, "released")
}

// RecordSinkError records a failed emit.
func (c *Collector) RecordSinkError(rat string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(rat).SinkErrors++
	c.export("rat", rat, "sink_error")
}

// RecordEvent records the label a handler attached to a message and the
// kind of outcome ("ok", "sanity" or "unknown").
func (c *Collector) RecordEvent(rat, label, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.getOrCreate(rat)
	switch kind {
	case "sanity":
		s.Sanity++
		c.export("event", kind)
	case "unknown":
		s.Unknown++
		c.export("event", kind)
	}
	if label != "" {
		c.Labels[label]++
	}
}

// RecordInputFile records an input file opened.
func (c *Collector) RecordInputFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InputFiles++
}

// RecordInputError records an input that could not be read.
func (c *Collector) RecordInputError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InputErrors++
	c.export("input", "error")
}

// RecordSkipped records an input record that carried no radio message.
func (c *Collector) RecordSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SkippedRecords++
}

// RecordFatal records a routing failure that stopped processing.
func (c *Collector) RecordFatal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FatalErrors++
	c.export("fatal")
}

// SessionClosed records a finished transaction. Flagged transactions are
// logged.
func (c *Collector) SessionClosed(sum session.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.SessionsClosed++
	c.export("session", sum.Domain.String(), "closed")
	if len(sum.Anomalies) == 0 {
		return
	}

	c.SessionsFlagged++
	for _, a := range sum.Anomalies {
		c.Anomalies[a]++
		c.export("anomaly", a)
	}

	log.WithFields(log.Fields{
		"run_id":    c.RunID,
		"domain":    sum.Domain,
		"rat":       sum.RAT,
		"forced":    sum.ForcedRelease,
		"cipher":    sum.State.Cipher,
		"auth":      sum.State.Auth,
		"first_fn":  sum.State.FirstFN.Value(),
		"last_fn":   sum.State.LastFN,
		"anomalies": strings.Join(sum.Anomalies, ","),
	}).Warn("Session closed with anomalies")
}

// Finish marks the end of the collection period.
func (c *Collector) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EndTime = time.Now()
}

// Duration returns the elapsed time.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EndTime.IsZero() {
		return time.Since(c.StartTime)
	}
	return c.EndTime.Sub(c.StartTime)
}

// TotalReceived returns the number of messages routed across all RATs.
func (c *Collector) TotalReceived() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total uint64
	for _, s := range c.RATStats {
		total += s.Received
	}
	return total
}

// TotalForwarded returns the number of messages handed to the sink.
func (c *Collector) TotalForwarded() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total uint64
	for _, s := range c.RATStats {
		total += s.Forwarded
	}
	return total
}

// TopLabels returns the n most frequent labels, most frequent first. Ties
// are ordered by label.
func (c *Collector) TopLabels(n int) []LabelCount {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]LabelCount, 0, len(c.Labels))
	for label, count := range c.Labels {
		rows = append(rows, LabelCount{Label: label, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Snapshot returns a copy of the current statistics (thread-safe).
func (c *Collector) Snapshot() *Collector {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &Collector{
		RunID:           c.RunID,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		RATStats:        make(map[string]*RATStats),
		Labels:          make(map[string]uint64, len(c.Labels)),
		SessionsClosed:  c.SessionsClosed,
		SessionsFlagged: c.SessionsFlagged,
		Anomalies:       make(map[string]uint64, len(c.Anomalies)),
		InputFiles:      c.InputFiles,
		InputErrors:     c.InputErrors,
		SkippedRecords:  c.SkippedRecords,
		FatalErrors:     c.FatalErrors,
	}

	for k, v := range c.RATStats {
		s := *v
		snap.RATStats[k] = &s
	}
	for k, v := range c.Labels {
		snap.Labels[k] = v
	}
	for k, v := range c.Anomalies {
		snap.Anomalies[k] = v
	}

	return snap
}
