package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/mars-analytics/rag-platform/internal/artifact"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

type fakeHistory struct {
	cleared []string
}

func (f *fakeHistory) Append(context.Context, string, ...models.HistoryEntry) error { return nil }

func (f *fakeHistory) Read(context.Context, string) ([]models.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeHistory) Clear(_ context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return nil
}

type fakeTasks struct {
	records []models.TaskRecord
}

func (f *fakeTasks) Create(context.Context, models.TaskRecord) error         { return nil }
func (f *fakeTasks) MarkRunning(context.Context, string, int) error          { return nil }
func (f *fakeTasks) MarkSuccess(context.Context, string) error               { return nil }
func (f *fakeTasks) MarkSkipped(context.Context, string, string) error       { return nil }
func (f *fakeTasks) MarkFailed(context.Context, string, string) error        { return nil }
func (f *fakeTasks) GetBySync(context.Context, string) ([]models.TaskRecord, error) {
	return f.records, nil
}

type fakeGraph struct {
	counts map[string]int64
}

func (f *fakeGraph) MergeDocument(context.Context, models.DocumentNode) error { return nil }

func (f *fakeGraph) CountDocuments(_ context.Context, projectID string) (int64, error) {
	return f.counts[projectID], nil
}

func newTestRouter(hist *fakeHistory, tasks *fakeTasks) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := NewAPI(nil, nil, hist, tasks, &fakeGraph{counts: map[string]int64{"p1": 3}}, artifact.NewMemoryStore(), logger.New("server-test", "", ""))
	RegisterRoutes(router, api)
	return router
}

func TestProjectStats(t *testing.T) {
	router := newTestRouter(&fakeHistory{}, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p1/stats", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"document_count":3`) {
		t.Errorf("body missing count: %s", w.Body.String())
	}
}

func TestRequestLoggerRecordsRequestInfo(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	router := newTestRouter(&fakeHistory{}, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	found := false
	for _, entry := range hook.AllEntries() {
		info, ok := entry.Data["request_info"].(models.RequestInfo)
		if ok && info.Method == http.MethodGet && info.Path == "/healthz" {
			found = true
		}
	}
	if !found {
		t.Error("no log entry carries request_info for the served request")
	}
}

func TestArtifactNotFound(t *testing.T) {
	router := newTestRouter(&fakeHistory{}, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/deadbeef", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeHistory{}, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestClearHistory(t *testing.T) {
	hist := &fakeHistory{}
	router := newTestRouter(hist, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/history/s42", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(hist.cleared) != 1 || hist.cleared[0] != "s42" {
		t.Errorf("cleared sessions = %v", hist.cleared)
	}
}

func TestTasksRequiresSyncID(t *testing.T) {
	router := newTestRouter(&fakeHistory{}, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTasksReturnsRecords(t *testing.T) {
	tasks := &fakeTasks{records: []models.TaskRecord{
		{ID: "t1", SyncID: "s1", Status: models.TaskStatusSuccess},
	}}
	router := newTestRouter(&fakeHistory{}, tasks)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks?sync_id=s1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "t1") {
		t.Errorf("body missing task record: %s", w.Body.String())
	}
}

func TestSyncRejectsInvalidPayload(t *testing.T) {
	router := newTestRouter(&fakeHistory{}, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader(`{"project_id": "p1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQueryRejectsInvalidPayload(t *testing.T) {
	router := newTestRouter(&fakeHistory{}, &fakeTasks{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/query", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
