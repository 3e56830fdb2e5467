package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "apidash.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "apidash.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSaveDocumentUpsertsByName(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	first, err := st.SaveDocument(ctx, "petstore", "file.json", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := st.SaveDocument(ctx, "petstore", "other.json", []byte(`{"v":2}`))
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if first != second {
		t.Fatalf("upsert produced new id: %d then %d", first, second)
	}

	docs, err := st.Documents(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if string(docs[0].Content) != `{"v":2}` || docs[0].Source != "other.json" {
		t.Fatalf("content not replaced: %q %q", docs[0].Content, docs[0].Source)
	}
}

func TestDocumentByIDAndDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.SaveDocument(ctx, "petstore", "", []byte(`{}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, err := st.DocumentByID(ctx, id)
	if err != nil || doc == nil {
		t.Fatalf("get: doc=%v err=%v", doc, err)
	}
	if doc.Name != "petstore" {
		t.Fatalf("name = %q", doc.Name)
	}

	if missing, err := st.DocumentByID(ctx, id+100); err != nil || missing != nil {
		t.Fatalf("missing lookup: doc=%v err=%v", missing, err)
	}

	deleted, err := st.DeleteDocument(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	deleted, err = st.DeleteDocument(ctx, id)
	if err != nil || deleted {
		t.Fatalf("re-delete should report false, got %v %v", deleted, err)
	}
}

func TestSingleActiveEnvironment(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	devID, err := st.SaveEnvironment(ctx, Environment{
		Name:      "development",
		Variables: map[string]string{"base_url": "http://localhost:3000"},
	}, true)
	if err != nil {
		t.Fatalf("save development: %v", err)
	}

	prodID, err := st.SaveEnvironment(ctx, Environment{
		Name:      "production",
		Variables: map[string]string{"base_url": "https://api.example.com"},
	}, true)
	if err != nil {
		t.Fatalf("save production: %v", err)
	}

	assertOnlyActive := func(wantID int64) {
		t.Helper()
		envs, err := st.Environments(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		activeCount := 0
		for _, env := range envs {
			if env.IsActive {
				activeCount++
				if env.ID != wantID {
					t.Fatalf("active env id = %d, want %d", env.ID, wantID)
				}
			}
		}
		if activeCount != 1 {
			t.Fatalf("active count = %d, want 1", activeCount)
		}
	}

	// activating production must have deactivated development
	assertOnlyActive(prodID)

	activated, err := st.ActivateEnvironment(ctx, devID)
	if err != nil || !activated {
		t.Fatalf("activate: %v %v", activated, err)
	}
	assertOnlyActive(devID)

	active, err := st.ActiveEnvironment(ctx)
	if err != nil {
		t.Fatalf("active lookup: %v", err)
	}
	if active == nil || active.Name != "development" {
		t.Fatalf("active = %v", active)
	}
	if active.Variables["base_url"] != "http://localhost:3000" {
		t.Fatalf("variables = %v", active.Variables)
	}
}

func TestActivateMissingEnvironment(t *testing.T) {
	st := openTestStore(t)
	activated, err := st.ActivateEnvironment(context.Background(), 12345)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated {
		t.Fatalf("missing environment reported as activated")
	}
}

func TestActiveEnvironmentWhenNoneActive(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.SaveEnvironment(ctx, Environment{Name: "idle"}, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	active, err := st.ActiveEnvironment(ctx)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if active != nil {
		t.Fatalf("expected nil active environment, got %v", active)
	}
}

func TestDeleteEnvironment(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.SaveEnvironment(ctx, Environment{Name: "temp"}, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	deleted, err := st.DeleteEnvironment(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	deleted, err = st.DeleteEnvironment(ctx, id)
	if err != nil || deleted {
		t.Fatalf("re-delete: %v %v", deleted, err)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := st.AppendHistory(ctx, HistoryEntry{
			Endpoint:   "GET /users",
			Method:     "GET",
			Status:     200,
			ElapsedMS:  int64(10 * (i + 1)),
			ExecutedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := st.RecentHistory(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].ExecutedAt.After(entries[1].ExecutedAt) {
		t.Fatalf("entries not newest-first: %v then %v", entries[0].ExecutedAt, entries[1].ExecutedAt)
	}
	if entries[0].ElapsedMS != 30 {
		t.Fatalf("latest elapsed = %d, want 30", entries[0].ElapsedMS)
	}
	if entries[0].EntryID == "" {
		t.Fatalf("entry id not generated")
	}
	if entries[0].RequestHeaders != "{}" {
		t.Fatalf("empty headers stored as %q, want {}", entries[0].RequestHeaders)
	}
}

func TestHistoryEnvironmentReference(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	envID, err := st.SaveEnvironment(ctx, Environment{Name: "production"}, true)
	if err != nil {
		t.Fatalf("save env: %v", err)
	}

	if _, err := st.AppendHistory(ctx, HistoryEntry{
		Endpoint:      "GET /users",
		Method:        "GET",
		Status:        200,
		EnvironmentID: &envID,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := st.AppendHistory(ctx, HistoryEntry{
		Endpoint: "GET /health",
		Method:   "GET",
		Status:   200,
	}); err != nil {
		t.Fatalf("append without env: %v", err)
	}

	entries, err := st.RecentHistory(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	var withEnv, withoutEnv bool
	for _, entry := range entries {
		if entry.Endpoint == "GET /users" {
			withEnv = entry.EnvironmentID != nil && *entry.EnvironmentID == envID
		}
		if entry.Endpoint == "GET /health" {
			withoutEnv = entry.EnvironmentID == nil
		}
	}
	if !withEnv || !withoutEnv {
		t.Fatalf("environment references not preserved: withEnv=%v withoutEnv=%v", withEnv, withoutEnv)
	}
}
