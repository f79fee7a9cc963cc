package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcomp "github.com/turtacn/perovskite-json/internal/application/composition"
	"github.com/turtacn/perovskite-json/internal/config"
	rediscache "github.com/turtacn/perovskite-json/internal/infrastructure/database/redis"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/internal/infrastructure/reference/tablefile"
	"github.com/turtacn/perovskite-json/pkg/client"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	refDir := filepath.Join(dir, "Data_ions")
	writeTables(t, refDir)

	cfg := config.Default()
	cfg.Reference.Dir = refDir
	cfg.Output.DefaultFolder = filepath.Join(dir, "Data")
	return cfg
}

func TestNewRuntime_Filesystem(t *testing.T) {
	cfg := testConfig(t)

	rt, err := NewRuntime(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Metrics)
	assert.Nil(t, rt.Collector)
	assert.Same(t, rt.Loader, rt.Tables)
	require.Len(t, rt.Checkers, 1)
	assert.Equal(t, "reference", rt.Checkers[0].Name())
	assert.NoError(t, rt.Checkers[0].Check(context.Background()))

	res, err := rt.Service.Compose(context.Background(), &appcomp.ComposeInput{
		Request: ptypes.Request{
			A: ptypes.SiteInput{Ions: []string{"MA"}, Coefficients: ptypes.Coefficients("1")},
			B: ptypes.SiteInput{Ions: []string{"Pb"}, Coefficients: ptypes.Coefficients("1")},
			C: ptypes.SiteInput{Ions: []string{"I"}, Coefficients: ptypes.Coefficients("3")},
		},
		Destination: ptypes.Destination{FileName: "MAPbI3"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.DefaultFolder, "MAPbI3.json"), res.Location)
	assert.Equal(t, "MAPbI3", res.Formula)
}

func TestNewRuntime_RejectsBadInput(t *testing.T) {
	_, err := NewRuntime(nil, nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Output.FileMode = "rw-r--r--"
	_, err = NewRuntime(cfg, nil)
	assert.Error(t, err)
}

func TestNewRuntime_MinIOUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Backend = config.BackendMinIO
	cfg.Storage.MinIO.Endpoint = "127.0.0.1:1"
	cfg.Storage.MinIO.Bucket = "documents"

	_, err := NewRuntime(cfg, nil)
	assert.Error(t, err)
}

func TestNewRuntime_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = mr.Addr()
	cfg.Metrics.Enabled = true

	rt, err := NewRuntime(cfg, nil)
	require.NoError(t, err)
	defer rt.Close()

	_, ok := rt.Tables.(*rediscache.TableCache)
	require.True(t, ok)
	require.Len(t, rt.Checkers, 2)
	assert.Equal(t, "cache", rt.Checkers[1].Name())
	assert.NoError(t, rt.Checkers[1].Check(context.Background()))

	ions, err := rt.Service.ListIons(context.Background(), ptypes.SiteA)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cs", "FA", "MA", "PEA"}, ions)

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.True(t, strings.HasPrefix(keys[0], cfg.Cache.KeyPrefix), keys[0])
}

func TestRuntime_Reload(t *testing.T) {
	cfg := testConfig(t)
	logger, err := logging.NewLogger(logging.LogConfig{Level: "error", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)

	rt, err := NewRuntime(cfg, logger)
	require.NoError(t, err)
	defer rt.Close()

	next := *cfg
	next.Reference.Dir = filepath.Join(t.TempDir(), "elsewhere")
	next.Log.Level = "debug"
	rt.Reload(context.Background(), &next)

	assert.Equal(t, tablefile.Paths{
		Dir: next.Reference.Dir,
		A:   cfg.Reference.A,
		B:   cfg.Reference.B,
		C:   cfg.Reference.C,
	}, rt.Loader.Paths())
	assert.Equal(t, "debug", rt.Config.Log.Level)
	assert.Error(t, rt.Checkers[0].Check(context.Background()))
}

func TestServeHandler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true

	rt, err := NewRuntime(cfg, nil)
	require.NoError(t, err)
	defer rt.Close()
	h := newHandler(rt, logging.NewNopLogger(), true)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"liveness", http.MethodGet, "/healthz", "", http.StatusOK, ""},
		{"readiness", http.MethodGet, "/readyz", "", http.StatusOK, "reference"},
		{"ions", http.MethodGet, "/api/v1/ions/B", "", http.StatusOK, "Pb"},
		{"dry run", http.MethodPost, "/api/v1/compositions?dry_run=true",
			`{"a":{"ions":["Cs"],"coefficients":["1"]},"b":{"ions":["Pb"]},"c":{"ions":["Br"],"coefficients":["3"]},"file_name":"x"}`,
			http.StatusOK, "CsPbnanBr3"},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, "perovskite_compositions_built_total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestServeHandler_WithClient(t *testing.T) {
	cfg := testConfig(t)
	rt, err := NewRuntime(cfg, nil)
	require.NoError(t, err)
	defer rt.Close()

	srv := httptest.NewServer(newHandler(rt, logging.NewNopLogger(), false))
	defer srv.Close()

	c, err := client.NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.Compose(ctx, &client.CompositionForm{
		A:              client.SiteSlots{Ions: []string{"PEA", "MA"}, Coefficients: []string{"0,2", "0.8"}},
		B:              client.SiteSlots{Ions: []string{"Pb"}, Coefficients: []string{"1"}},
		C:              client.SiteSlots{Ions: []string{"I"}, Coefficients: []string{"3"}},
		Dimensionality: "2D/3D",
		FileName:       "pea-mapbi3.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "MA(PEA)PbI", res.Family)
	assert.Equal(t, "MA0.8(PEA)0.2PbI3", res.Formula)
	assert.Equal(t, filepath.Join(cfg.Output.DefaultFolder, "pea-mapbi3.json"), res.Location)
	assert.FileExists(t, res.Location)

	doc, err := rt.Service.ReadDocument(ctx, res.Location)
	require.NoError(t, err)
	assert.Equal(t, res.Document.AIons, doc.AIons)

	ions, err := c.ListIons(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pb", "Sn"}, ions)

	_, err = c.ListIons(ctx, "D")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "CMP_003", apiErr.Code)

	_, err = c.Compose(ctx, &client.CompositionForm{A: client.SiteSlots{Ions: []string{"Cs"}}})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "CMP_004", apiErr.Code)
	assert.True(t, apiErr.IsValidation())
}
