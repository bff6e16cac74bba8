package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/habedi/cwactl/auth"
	"github.com/habedi/cwactl/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(serverURL string) client.Config {
	return client.Config{
		ServerURL: serverURL,
		ClientID:  "client-123",
		Credentials: auth.Credentials{
			Method:   auth.MethodIntegrator,
			Username: "integrator",
			Password: "secret",
		},
	}
}

func TestConfig_Resolve(t *testing.T) {
	cfg, err := validConfig("https://automate.example.com/").Resolve()
	require.NoError(t, err)
	assert.Equal(t, "https://automate.example.com", cfg.ServerURL)
	assert.Equal(t, "https://automate.example.com/cwa/api/v1", cfg.BaseURL())
	assert.Equal(t, "https://automate.example.com/cwa/api/v1/apitoken", cfg.TokenURL())
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, client.DefaultRateLimitConfig(), cfg.RateLimit)
}

func TestConfig_ResolveCustomAPIPath(t *testing.T) {
	cfg := validConfig("https://automate.example.com")
	cfg.APIPath = "api/v2/"
	resolved, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "https://automate.example.com/api/v2", resolved.BaseURL())
}

func TestConfig_ResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*client.Config)
		wantMsg string
	}{
		{"missing server", func(c *client.Config) { c.ServerURL = "" }, "serverUrl is required"},
		{"missing client id", func(c *client.Config) { c.ClientID = "" }, "clientId is required"},
		{"missing password", func(c *client.Config) { c.Credentials.Password = "" }, "integratorUsername and integratorPassword are required"},
		{"bad method", func(c *client.Config) { c.Credentials.Method = "token" }, "Invalid authentication method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig("https://automate.example.com")
			tt.mutate(&cfg)

			_, err := cfg.Resolve()
			require.Error(t, err)
			assert.True(t, errors.Is(err, client.ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.wantMsg)

			c, err := client.New(cfg)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, client.ErrInvalidConfig)
		})
	}
}

// fakeServer answers the token endpoint and a handful of resource routes.
type fakeServer struct {
	*httptest.Server
	tokenCalls atomic.Int32

	mu       sync.Mutex
	requests []string
	bodies   map[string]string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{bodies: map[string]string{}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /cwa/api/v1/apitoken", func(w http.ResponseWriter, r *http.Request) {
		fs.tokenCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{
			"AccessToken":    "access-token",
			"ExpirationDate": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/cwa/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/cwa/api/v1")
		fs.mu.Lock()
		fs.requests = append(fs.requests, key)
		fs.bodies[key] = string(body)
		fs.mu.Unlock()

		switch key {
		case "GET /Computers":
			writeJSON(w, http.StatusOK, map[string]any{
				"TotalRecords": 3,
				"Data": []map[string]any{
					{"Id": 1, "ComputerName": "WS-001", "IsOnline": true},
					{"Id": 2, "ComputerName": "WS-002"},
				},
			})
		case "GET /Computers/1":
			writeJSON(w, http.StatusOK, map[string]any{"Id": 1, "ComputerName": "WS-001"})
		case "GET /Alerts/Statistics":
			writeJSON(w, http.StatusOK, map[string]any{"Total": 4, "New": 2, "BySeverity": map[string]int{"High": 1}})
		case "GET /Scripts/Folders":
			writeJSON(w, http.StatusOK, []map[string]any{{"Id": 1, "Name": "Maintenance"}})
		case "POST /Computers/1/Restart", "POST /Computers/1/WakeUp", "DELETE /Groups/5/Members":
			w.WriteHeader(http.StatusNoContent)
		case "POST /Alerts/Acknowledge":
			writeJSON(w, http.StatusOK, map[string]any{"Count": 2, "AcknowledgedAlertIds": []int{10, 11}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"Message": "no route"})
		}
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) seen() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.requests...)
}

func newTestClient(t *testing.T, fs *fakeServer) *client.Client {
	t.Helper()
	c, err := client.New(validConfig(fs.URL+"/"), client.WithHTTPClient(fs.Client()))
	require.NoError(t, err)
	return c
}

func TestClient_FetchesTokenOnceAcrossServices(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)
	ctx := context.Background()

	page, err := c.Computers.List(ctx, client.ComputerListOptions{ListOptions: client.ListOptions{PageSize: 2}})
	require.NoError(t, err)
	require.NotNil(t, page.TotalRecords)
	assert.Equal(t, 3, *page.TotalRecords)
	assert.Len(t, page.Data, 2)
	assert.True(t, page.Data[0].IsOnline)

	computer, err := c.Computers.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "WS-001", computer.ComputerName)

	stats, err := c.Alerts.Statistics(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.BySeverity["High"])

	assert.Equal(t, int32(1), fs.tokenCalls.Load())
	assert.True(t, c.Auth().HasValidToken())
}

func TestClient_ConcurrentFirstRequestsShareOneToken(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Computers.Get(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fs.tokenCalls.Load())
}

func TestClient_InvalidateTokenForcesRefetch(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)
	ctx := context.Background()

	_, err := c.Computers.Get(ctx, 1)
	require.NoError(t, err)
	c.InvalidateToken()
	assert.False(t, c.Auth().HasValidToken())

	_, err = c.Computers.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fs.tokenCalls.Load())
}

func TestClient_ResourceRoutes(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)
	ctx := context.Background()

	require.NoError(t, c.Computers.Restart(ctx, 1, client.PowerOptions{Force: true}))
	require.NoError(t, c.Computers.WakeUp(ctx, 1))
	res, err := c.Alerts.Acknowledge(ctx, []int{10, 11}, "looked at it")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, res.AcknowledgedAlertIDs)
	require.NoError(t, c.Groups.RemoveMembers(ctx, 5, []int{7, 8}))
	folders, err := c.Scripts.Folders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Maintenance", folders[0].Name)

	assert.Equal(t, []string{
		"POST /Computers/1/Restart",
		"POST /Computers/1/WakeUp",
		"POST /Alerts/Acknowledge",
		"DELETE /Groups/5/Members",
		"GET /Scripts/Folders",
	}, fs.seen())

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.JSONEq(t, `{"Force":true}`, fs.bodies["POST /Computers/1/Restart"])
	assert.JSONEq(t, `{"AlertIds":[10,11],"Notes":"looked at it"}`, fs.bodies["POST /Alerts/Acknowledge"])
	assert.JSONEq(t, `{"MemberIds":[7,8]}`, fs.bodies["DELETE /Groups/5/Members"])
}

func TestClient_ListAllWalksPages(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/apitoken") {
			writeJSON(w, http.StatusOK, map[string]string{
				"AccessToken":    "t",
				"ExpirationDate": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
			})
			return
		}
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("pageSize"))
		assert.Equal(t, "true", q.Get("includeOffline"))
		var data []map[string]any
		switch q.Get("page") {
		case "1":
			data = []map[string]any{{"Id": 1}, {"Id": 2}}
		case "2":
			data = []map[string]any{{"Id": 3}}
		}
		writeJSON(w, http.StatusOK, map[string]any{"TotalRecords": 3, "Data": data})
	}))
	t.Cleanup(server.Close)

	c, err := client.New(validConfig(server.URL), client.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	opts := client.ComputerListOptions{
		ListOptions:    client.ListOptions{Page: 9, PageSize: 2},
		IncludeOffline: client.Bool(true),
	}
	all, err := c.Computers.ListAll(opts).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[2].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PaginateGeneric(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	type slim struct {
		ID int `json:"Id"`
	}
	// The fake always returns the same short page, so the walk ends after one request.
	items, err := client.Paginate[slim](c, "/Computers", nil, 50).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, []string{"GET /Computers"}, fs.seen())
}

func TestClient_RateLimitStatus(t *testing.T) {
	fs := newFakeServer(t)
	cfg := validConfig(fs.URL)
	cfg.RateLimit = client.RateLimitConfig{MaxRequests: 10}
	c, err := client.New(cfg, client.WithHTTPClient(fs.Client()))
	require.NoError(t, err)

	status := c.RateLimitStatus()
	assert.Equal(t, 10, status.Remaining)
	assert.Equal(t, 0.0, status.Rate)

	_, err = c.Computers.Get(context.Background(), 1)
	require.NoError(t, err)

	// The token request bypasses the limiter.
	status = c.RateLimitStatus()
	assert.Equal(t, 9, status.Remaining)
	assert.InDelta(t, 0.1, status.Rate, 1e-9)
}

func TestClient_RawExecute(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	var out map[string]any
	require.NoError(t, c.Execute(context.Background(), "/Computers/1", client.RequestOptions{}, &out))
	assert.Equal(t, "WS-001", out["ComputerName"])
	assert.Equal(t, "client-123", c.Config().ClientID)
}
