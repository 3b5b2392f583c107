package entries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchclock/punchclock/internal/models"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/timeclock"
)

// asUser stands in for the session middleware in tests.
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newTestRouter(mem *store.Memory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := timeclock.NewEngine(mem)

	router := gin.New()
	api := router.Group("/api", asUser(1))
	api.POST("/clock-in", HandleClockIn(engine))
	api.POST("/clock-out", HandleClockOut(engine))
	api.POST("/toggle", HandleToggle(engine))
	api.GET("/entries", HandleList(mem))
	api.PUT("/entries/:id", HandleUpdate(mem))
	api.DELETE("/entries/:id", HandleDelete(mem))
	api.GET("/export", HandleExport(mem))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClockInThenOut(t *testing.T) {
	router := newTestRouter(store.NewMemory())

	w := doJSON(t, router, http.MethodPost, "/api/clock-in",
		gin.H{"date": "2026-03-10", "time": "09:00", "timezone": "Europe/Berlin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/clock-out",
		gin.H{"date": "2026-03-10", "time": "17:30", "comment": "project work"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var entry models.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	require.NotNil(t, entry.CheckOut)
	assert.Equal(t, "17:30", *entry.CheckOut)
	require.NotNil(t, entry.Comment)
	assert.Equal(t, "project work", *entry.Comment)
}

func TestClockInConflict(t *testing.T) {
	router := newTestRouter(store.NewMemory())

	w := doJSON(t, router, http.MethodPost, "/api/clock-in", gin.H{"date": "2026-03-10", "time": "09:00"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/clock-in", gin.H{"date": "2026-03-10", "time": "09:05"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already clocked in")
}

func TestClockOutWithoutOpenEntry(t *testing.T) {
	router := newTestRouter(store.NewMemory())

	w := doJSON(t, router, http.MethodPost, "/api/clock-out", gin.H{"date": "2026-03-10", "time": "17:30"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "not clocked in")
}

func TestToggleReportsDuration(t *testing.T) {
	router := newTestRouter(store.NewMemory())

	w := doJSON(t, router, http.MethodPost, "/api/toggle", gin.H{"date": "2026-03-10", "time": "09:00"})
	require.Equal(t, http.StatusOK, w.Code)
	var first timeclock.ToggleResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, timeclock.ActionCheckIn, first.Action)

	w = doJSON(t, router, http.MethodPost, "/api/toggle", gin.H{"date": "2026-03-10", "time": "17:30"})
	require.Equal(t, http.StatusOK, w.Code)
	var second timeclock.ToggleResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, timeclock.ActionCheckOut, second.Action)
	assert.Equal(t, "8h 30m", second.Duration)
}

func TestClockInRejectsBadDate(t *testing.T) {
	router := newTestRouter(store.NewMemory())

	w := doJSON(t, router, http.MethodPost, "/api/clock-in", gin.H{"date": "10.03.2026", "time": "09:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListReturnsRange(t *testing.T) {
	mem := store.NewMemory()
	out := "17:00"
	require.NoError(t, mem.CreateEntry(context.Background(), &models.Entry{
		UserID: 1, Date: "2026-03-09", CheckIn: "09:00", CheckOut: &out,
	}))
	require.NoError(t, mem.CreateEntry(context.Background(), &models.Entry{
		UserID: 1, Date: "2026-03-10", CheckIn: "08:00",
	}))
	// Another user's entry stays invisible.
	require.NoError(t, mem.CreateEntry(context.Background(), &models.Entry{
		UserID: 2, Date: "2026-03-10", CheckIn: "08:00",
	}))
	router := newTestRouter(mem)

	w := doJSON(t, router, http.MethodGet, "/api/entries?from=2026-03-09&to=2026-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entries []models.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Entries, 2)
}

func TestUpdateForeignEntryIsNotFound(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.CreateEntry(context.Background(), &models.Entry{
		UserID: 2, Date: "2026-03-10", CheckIn: "08:00",
	}))
	router := newTestRouter(mem)

	w := doJSON(t, router, http.MethodPut, "/api/entries/1", gin.H{"comment": "mine now"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEntry(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.CreateEntry(context.Background(), &models.Entry{
		UserID: 1, Date: "2026-03-10", CheckIn: "08:00",
	}))
	router := newTestRouter(mem)

	w := doJSON(t, router, http.MethodDelete, "/api/entries/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/entries/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportTwoMonthRange(t *testing.T) {
	mem := store.NewMemory()
	out := "17:00"
	require.NoError(t, mem.CreateEntry(context.Background(), &models.Entry{
		UserID: 1, Date: "2026-01-15", CheckIn: "09:00", CheckOut: &out,
	}))
	router := newTestRouter(mem)

	url := fmt.Sprintf("/api/export?start_month=%d&start_year=%d&end_month=%d&end_year=%d", 1, 2026, 2, 2026)
	w := doJSON(t, router, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, []byte{'P', 'K'}, w.Body.Bytes()[:2])
}

func TestExportWithoutEntriesIsNotFound(t *testing.T) {
	router := newTestRouter(store.NewMemory())

	w := doJSON(t, router, http.MethodGet, "/api/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no entries")
}
