package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePrediction(subject string, ts time.Time, level string) PredictionRecord {
	return PredictionRecord{
		PredictionID: "pred-" + subject + ts.Format("150405.000000000"),
		SubjectID:    subject,
		RiskLevel:    level,
		RiskScore:    0.72,
		Confidence:   0.72,
		Factors: map[string]Factor{
			"excessive_hours": {Value: 55, Impact: "high", Description: "Working more than 50 hours per week"},
		},
		Recommendations: []string{"Urgent: Reduce workload and work hours"},
		ModelVersion:    "adv_12345678_20250101_000000",
		Timestamp:       ts,
	}
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	dbPath := filepath.Join(tempDir, "burnout-data.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewCreatesDataDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "data", "deep")

	store, err := New(nested)
	if err != nil {
		t.Fatalf("Failed to create store in nested path: %v", err)
	}
	store.Close()
}

func TestStoreClose(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
	// Closing twice must not error.
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestSaveAndGetPredictions(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := samplePrediction("user_001", base.Add(time.Duration(i)*time.Hour), "high")
		if err := store.SavePrediction(rec); err != nil {
			t.Fatalf("SavePrediction failed: %v", err)
		}
	}
	// A different subject sharing the id prefix must not leak into queries.
	other := samplePrediction("user_0012", base, "low")
	if err := store.SavePrediction(other); err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}

	history, err := store.GetPredictions("user_001", 0)
	if err != nil {
		t.Fatalf("GetPredictions failed: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("got %d records, want 5", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.After(history[i-1].Timestamp) {
			t.Error("history is not newest first")
			break
		}
	}
	if history[0].Timestamp != base.Add(4*time.Hour) {
		t.Errorf("newest record at %v, want %v", history[0].Timestamp, base.Add(4*time.Hour))
	}

	limited, err := store.GetPredictions("user_001", 2)
	if err != nil {
		t.Fatalf("GetPredictions with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d records with limit 2", len(limited))
	}

	empty, err := store.GetPredictions("nobody", 10)
	if err != nil {
		t.Fatalf("GetPredictions for unknown subject failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("got %d records for unknown subject, want 0", len(empty))
	}
}

func TestPredictionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2025, 8, 2, 9, 30, 0, 0, time.UTC)

	in := samplePrediction("user_042", ts, "critical")
	in.Recommendations = []string{
		"Immediate action required: Take time off",
		"Contact HR or management immediately",
	}
	if err := store.SavePrediction(in); err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}

	out, err := store.GetPredictions("user_042", 1)
	if err != nil {
		t.Fatalf("GetPredictions failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	got := out[0]
	if got.RiskLevel != "critical" || got.RiskScore != in.RiskScore {
		t.Errorf("risk fields changed: %+v", got)
	}
	factor, ok := got.Factors["excessive_hours"]
	if !ok {
		t.Fatal("factor map lost its entry")
	}
	if factor.Impact != "high" || factor.Value != 55 {
		t.Errorf("factor changed: %+v", factor)
	}
	if len(got.Recommendations) != 2 {
		t.Errorf("recommendations = %v", got.Recommendations)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
}

func TestCountPredictions(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().UTC()

	count, err := store.CountPredictions()
	if err != nil {
		t.Fatalf("CountPredictions failed: %v", err)
	}
	if count != 0 {
		t.Errorf("empty store count = %d", count)
	}

	for i := 0; i < 3; i++ {
		rec := samplePrediction("user_a", base.Add(time.Duration(i)*time.Minute), "low")
		if err := store.SavePrediction(rec); err != nil {
			t.Fatalf("SavePrediction failed: %v", err)
		}
	}

	count, err = store.CountPredictions()
	if err != nil {
		t.Fatalf("CountPredictions failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestPruneHistory(t *testing.T) {
	store := newTestStore(t)
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if err := store.SavePrediction(samplePrediction("user_b", old.Add(time.Duration(i)*time.Hour), "low")); err != nil {
			t.Fatalf("SavePrediction failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := store.SavePrediction(samplePrediction("user_b", recent.Add(time.Duration(i)*time.Hour), "low")); err != nil {
			t.Fatalf("SavePrediction failed: %v", err)
		}
	}

	removed, err := store.PruneHistory(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}
	if removed != 4 {
		t.Errorf("removed = %d, want 4", removed)
	}

	history, err := store.GetPredictions("user_b", 0)
	if err != nil {
		t.Fatalf("GetPredictions failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("got %d records after prune, want 2", len(history))
	}
	for _, rec := range history {
		if rec.Timestamp.Before(recent) {
			t.Errorf("pruned record survived: %v", rec.Timestamp)
		}
	}
}

func TestSaveAndGetJob(t *testing.T) {
	store := newTestStore(t)
	end := time.Date(2025, 8, 10, 12, 5, 0, 0, time.UTC)

	job := TrainingJob{
		TrainingID:  "8400b5a1-2c3d-4e5f-8a9b-0c1d2e3f4a5b",
		Status:      "completed",
		Progress:    100,
		ModelType:   "advanced",
		DatasetPath: "/data/team.csv",
		Hyperparameters: map[string]any{
			"n_estimators": float64(150),
		},
		StartTime:    time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC),
		EndTime:      &end,
		Metrics:      map[string]float64{"accuracy": 0.91, "recall": 0.88},
		ModelVersion: "adv_8400b5a1_20250810_120500",
	}
	if err := store.SaveJob(job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, found, err := store.GetJob(job.TrainingID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if !found {
		t.Fatal("job not found after save")
	}
	if got.Status != "completed" || got.Progress != 100 {
		t.Errorf("job state = %s/%d", got.Status, got.Progress)
	}
	if got.Metrics["accuracy"] != 0.91 {
		t.Errorf("metrics = %v", got.Metrics)
	}
	if got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", got.EndTime, end)
	}

	_, found, err = store.GetJob("missing-id")
	if err != nil {
		t.Fatalf("GetJob for missing id failed: %v", err)
	}
	if found {
		t.Error("missing job reported as found")
	}
}

func TestJobOverwrite(t *testing.T) {
	store := newTestStore(t)

	job := TrainingJob{TrainingID: "job-1", Status: "started", Progress: 0, StartTime: time.Now().UTC()}
	if err := store.SaveJob(job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	job.Status = "training"
	job.Progress = 60
	if err := store.SaveJob(job); err != nil {
		t.Fatalf("SaveJob update failed: %v", err)
	}

	got, _, err := store.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != "training" || got.Progress != 60 {
		t.Errorf("job not updated: %s/%d", got.Status, got.Progress)
	}

	jobs, err := store.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("overwrite grew the bucket: %d jobs", len(jobs))
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		job := TrainingJob{TrainingID: id, Status: "completed", StartTime: base.Add(time.Duration(i) * time.Hour)}
		if err := store.SaveJob(job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	jobs, err := store.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	if jobs[0].TrainingID != "c" || jobs[2].TrainingID != "a" {
		t.Errorf("jobs not newest first: %s, %s, %s", jobs[0].TrainingID, jobs[1].TrainingID, jobs[2].TrainingID)
	}
}

func TestPruneJobs(t *testing.T) {
	store := newTestStore(t)
	oldEnd := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	recentEnd := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

	jobs := []TrainingJob{
		{TrainingID: "old-done", Status: "completed", StartTime: oldEnd.Add(-time.Hour), EndTime: &oldEnd},
		{TrainingID: "old-failed", Status: "failed", StartTime: oldEnd.Add(-time.Hour), EndTime: &oldEnd},
		{TrainingID: "recent-done", Status: "completed", StartTime: recentEnd.Add(-time.Hour), EndTime: &recentEnd},
		{TrainingID: "still-running", Status: "training", StartTime: oldEnd.Add(-time.Hour)},
	}
	for _, job := range jobs {
		if err := store.SaveJob(job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	removed, err := store.PruneJobs(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PruneJobs failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	remaining, err := store.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("got %d jobs after prune, want 2", len(remaining))
	}
	for _, job := range remaining {
		if job.TrainingID == "old-done" || job.TrainingID == "old-failed" {
			t.Errorf("pruned job survived: %s", job.TrainingID)
		}
	}

	// A job with no end time is still running and must never be pruned,
	// however old its start time.
	if _, found, err := store.GetJob("still-running"); err != nil || !found {
		t.Errorf("running job was pruned (found=%v, err=%v)", found, err)
	}
}

func TestSaveAndGetEvaluation(t *testing.T) {
	store := newTestStore(t)

	payload, _ := json.Marshal(map[string]any{
		"evaluation_id": "eval-1",
		"metrics":       map[string]float64{"accuracy": 0.87},
	})
	record := EvaluationRecord{
		EvaluationID:     "eval-1",
		ModelVersion:     "adv_11112222_20250801_000000",
		EvaluationDate:   time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC),
		Accuracy:         0.87,
		PerformanceLevel: "good",
		Payload:          payload,
	}
	if err := store.SaveEvaluation(record); err != nil {
		t.Fatalf("SaveEvaluation failed: %v", err)
	}

	got, found, err := store.GetEvaluation("eval-1")
	if err != nil {
		t.Fatalf("GetEvaluation failed: %v", err)
	}
	if !found {
		t.Fatal("evaluation not found after save")
	}
	if got.Accuracy != 0.87 || got.PerformanceLevel != "good" {
		t.Errorf("summary fields = %f/%s", got.Accuracy, got.PerformanceLevel)
	}

	var decoded map[string]any
	if err := json.Unmarshal(got.Payload, &decoded); err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	if decoded["evaluation_id"] != "eval-1" {
		t.Errorf("payload = %v", decoded)
	}

	_, found, err = store.GetEvaluation("missing")
	if err != nil {
		t.Fatalf("GetEvaluation for missing id failed: %v", err)
	}
	if found {
		t.Error("missing evaluation reported as found")
	}
}

func TestListEvaluationsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"e1", "e2", "e3"} {
		record := EvaluationRecord{
			EvaluationID:     id,
			ModelVersion:     "v",
			EvaluationDate:   base.Add(time.Duration(i) * time.Hour),
			Accuracy:         0.8 + float64(i)*0.01,
			PerformanceLevel: "good",
		}
		if err := store.SaveEvaluation(record); err != nil {
			t.Fatalf("SaveEvaluation failed: %v", err)
		}
	}

	rows, err := store.ListEvaluations()
	if err != nil {
		t.Fatalf("ListEvaluations failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].EvaluationID != "e3" {
		t.Errorf("newest evaluation is %s, want e3", rows[0].EvaluationID)
	}
	if rows[0].Accuracy != 0.82 {
		t.Errorf("accuracy = %f, want 0.82", rows[0].Accuracy)
	}
}
