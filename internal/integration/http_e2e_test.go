//go:build integration

package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	server "restaurant_finder/internal/adapters/http_server"
	redisad "restaurant_finder/internal/adapters/redis"
	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
	mysqlrepo "restaurant_finder/internal/storage/mysql"
)

const token = "e2e-token"

// ---------- helpers ----------
func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = filepath.Join("..", "..", "migrations")
	}

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func call(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return res.StatusCode
}

// ---------- the test ----------
func TestHTTP_EndToEnd_ReviewUpdatesRating(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=restaurants",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "restaurants")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// Apply the real migrations
	applyMigrations(t, db)

	mr := miniredis.RunT(t)
	cache := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	store := mysqlrepo.New(db)
	rs, cs, rv := store.Restaurants(), store.Categories(), store.Reviews()

	srv := server.New(nil)
	srv.MountHandlers(&server.Handlers{
		Search:  app.NewSearchService(rs),
		Q:       app.NewQueryService(rs, cs, rv, cache, time.Minute),
		Catalog: app.NewCatalogService(rs, cs, rv, cache, nil),
	}, server.WriteGuard{Tokens: []string{token}, RPS: 100, Burst: 100})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()
	base := ts.URL + "/api/v1/restaurants"

	var cat domain.Category
	if code := call(t, http.MethodPost, base+"/categories", map[string]string{"name": "Ramen"}, &cat); code != http.StatusCreated {
		t.Fatalf("create category: status %d", code)
	}

	var rest domain.Restaurant
	code := call(t, http.MethodPost, base+"/register", map[string]any{
		"name":        "Noodle Bar",
		"address":     "7 Side St",
		"hours":       "12-23",
		"priceRange":  "LOW",
		"categoryIds": []int64{cat.ID},
	}, &rest)
	if code != http.StatusCreated {
		t.Fatalf("register: status %d", code)
	}

	// warm the cache with the unrated version
	var got domain.Restaurant
	if code := call(t, http.MethodGet, fmt.Sprintf("%s/%d", base, rest.ID), nil, &got); code != http.StatusOK || got.Rating != "0.0" {
		t.Fatalf("get before review: status %d rating %q", code, got.Rating)
	}

	for _, r := range []int{5, 2} {
		body := map[string]any{"rating": r, "comment": "tasted it and have opinions"}
		if code := call(t, http.MethodPost, fmt.Sprintf("%s/%d/reviews", base, rest.ID), body, nil); code != http.StatusCreated {
			t.Fatalf("add review: status %d", code)
		}
	}

	if code := call(t, http.MethodGet, fmt.Sprintf("%s/%d", base, rest.ID), nil, &got); code != http.StatusOK {
		t.Fatalf("get after review: status %d", code)
	}
	if got.Rating != "3.5" {
		t.Fatalf("rating = %q, want 3.5 (stale cache?)", got.Rating)
	}

	var found []domain.Restaurant
	if code := call(t, http.MethodGet, base+"?categories=ramen&rating=3", nil, &found); code != http.StatusOK {
		t.Fatalf("search: status %d", code)
	}
	if len(found) != 1 || found[0].ID != rest.ID {
		t.Fatalf("unexpected search result: %+v", found)
	}
}
