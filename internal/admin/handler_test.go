// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

type stubRepo struct {
	totals Totals
	counts []StatusCount
	err    error
}

func (s stubRepo) Totals(context.Context) (Totals, error) { return s.totals, s.err }

func (s stubRepo) LeadsByStatus(context.Context) ([]StatusCount, error) {
	return s.counts, s.err
}

func passthrough(next http.Handler) http.Handler { return next }

func newAdminRouter(cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, passthrough, passthrough)
	return r
}

func TestGetCRMStats(t *testing.T) {
	repo := stubRepo{
		totals: Totals{Users: 3, UnassignedUsers: 1, Customers: 2, Leads: 4},
		counts: []StatusCount{{StatusID: 1, Status: "new", Count: 4}},
	}
	router := newAdminRouter(HandlerConfig{Repo: repo})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/crm", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data CRMStats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(1), body.Data.Totals.UnassignedUsers)
	assert.Equal(t, repo.counts, body.Data.LeadsByStatus)
}

func TestGetCRMStatsError(t *testing.T) {
	router := newAdminRouter(HandlerConfig{Repo: stubRepo{err: errors.New("boom")}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/crm", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetSystemStats(t *testing.T) {
	router := newAdminRouter(HandlerConfig{
		Repo:       stubRepo{totals: Totals{Customers: 9}},
		DBStats:    func() sql.DBStats { return sql.DBStats{OpenConnections: 2} },
		RedisStats: func() core.RedisStats { return core.RedisStats{TotalConns: 3} },
		DBPing:     func(context.Context) error { return nil },
		RedisPing:  func(context.Context) error { return errors.New("down") },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Data.Database.Healthy)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Equal(t, 2, body.Data.Database.Stats.OpenConnections)
	assert.Equal(t, uint32(3), body.Data.Redis.Stats.TotalConns)
	require.NotNil(t, body.Data.CRM)
	assert.Equal(t, int64(9), body.Data.CRM.Totals.Customers)
}
