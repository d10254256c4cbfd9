package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diag-parser/internal/session"
	"diag-parser/pkg/types"
)

type recordingExporter struct {
	buckets map[string]int
}

func (e *recordingExporter) Increment(bucket string) {
	e.buckets[bucket]++
}

func (e *recordingExporter) Count(bucket string, n interface{}) {
	e.buckets[bucket] += n.(int)
}

func TestCollector_RunIDIsUnique(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestCollector_RATCounters(t *testing.T) {
	c := NewCollector()
	c.RecordReceived("GSM")
	c.RecordReceived("GSM")
	c.RecordReceived("LTE")
	c.RecordForwarded("GSM")
	c.RecordReleased("GSM")
	c.RecordSinkError("GSM")

	assert.Equal(t, uint64(3), c.TotalReceived())
	assert.Equal(t, uint64(1), c.TotalForwarded())
	assert.Equal(t, uint64(2), c.RATStats["GSM"].Received)
	assert.Equal(t, uint64(1), c.RATStats["GSM"].Released)
	assert.Equal(t, uint64(1), c.RATStats["GSM"].SinkErrors)
}

func TestCollector_Events(t *testing.T) {
	c := NewCollector()
	c.RecordEvent("GSM", "CALL SETUP", "ok")
	c.RecordEvent("GSM", "CALL SETUP", "ok")
	c.RecordEvent("GSM", "UNKNOWN CC (3c)", "unknown")
	c.RecordEvent("GSM", "FAILED SANITY CHECKS (MM_LEN)", "sanity")
	c.RecordEvent("GSM", "", "ok")

	assert.Equal(t, uint64(1), c.RATStats["GSM"].Sanity)
	assert.Equal(t, uint64(1), c.RATStats["GSM"].Unknown)
	assert.Len(t, c.Labels, 3)

	top := c.TopLabels(2)
	require.Len(t, top, 2)
	assert.Equal(t, LabelCount{Label: "CALL SETUP", Count: 2}, top[0])
	assert.Equal(t, "FAILED SANITY CHECKS (MM_LEN)", top[1].Label)
}

func TestCollector_SessionClosed(t *testing.T) {
	c := NewCollector()
	c.SessionClosed(session.Summary{Domain: types.DomainCS})
	c.SessionClosed(session.Summary{
		Domain:    types.DomainPS,
		Anomalies: []string{session.AnomalyNoCipher, session.AnomalyIMSIUnciphered},
	})

	assert.Equal(t, uint64(2), c.SessionsClosed)
	assert.Equal(t, uint64(1), c.SessionsFlagged)
	assert.Equal(t, uint64(1), c.Anomalies[session.AnomalyNoCipher])
}

func TestCollector_Exporter(t *testing.T) {
	exp := &recordingExporter{buckets: make(map[string]int)}
	c := NewCollector()
	c.SetExporter(exp)

	c.RecordReceived("GSM")
	c.RecordEvent("GSM", "UNKNOWN RR (7f)", "unknown")
	c.SessionClosed(session.Summary{Domain: types.DomainCS, Anomalies: []string{session.AnomalyFraudPredict}})

	assert.Equal(t, 1, exp.buckets["rat.gsm.received"])
	assert.Equal(t, 1, exp.buckets["event.unknown"])
	assert.Equal(t, 1, exp.buckets["session.cs.closed"])
	assert.Equal(t, 1, exp.buckets["anomaly.fraud_predict"])
}

func TestCollector_SnapshotIsIndependent(t *testing.T) {
	c := NewCollector()
	c.RecordReceived("GSM")
	snap := c.Snapshot()
	c.RecordReceived("GSM")

	assert.Equal(t, uint64(1), snap.RATStats["GSM"].Received)
	assert.Equal(t, uint64(2), c.RATStats["GSM"].Received)
}

func TestReporter_FormatReport(t *testing.T) {
	c := NewCollector()
	c.RecordReceived("GSM")
	c.RecordEvent("GSM", "PAGING RESPONSE", "ok")
	c.SessionClosed(session.Summary{Anomalies: []string{session.AnomalyCipherMissing}})

	out := NewReporter(c, 0, "").FormatReport()
	assert.Contains(t, out, c.RunID)
	assert.Contains(t, out, "GSM:")
	assert.Contains(t, out, "PAGING RESPONSE")
	assert.Contains(t, out, "cipher_missing:")
}

func TestReporter_ExportJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "stats.json")
	c := NewCollector()
	c.RecordReceived("UMTS")
	c.RecordForwarded("UMTS")

	r := NewReporter(c, 0, file)
	c.Finish()
	require.NoError(t, r.ExportJSON())

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, c.RunID, out["run_id"])

	rats := out["rats"].(map[string]interface{})
	umts := rats["UMTS"].(map[string]interface{})
	assert.Equal(t, float64(1), umts["forwarded"])
}

func TestReporter_ExportJSONDisabled(t *testing.T) {
	r := NewReporter(NewCollector(), 0, "")
	assert.NoError(t, r.ExportJSON())
}
