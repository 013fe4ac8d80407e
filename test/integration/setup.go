package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a migrated cart database.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container and applies the cart schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zerolog.Nop()
	if err := database.Migrate(connStr, logger); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	pool, err := database.Open(ctx, connStr, database.PoolLimits{MaxConns: 5, MinConns: 1}, logger)
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes every stored cart.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "DELETE FROM cart_lines"); err != nil {
		t.Logf("failed to clean cart_lines: %v", err)
	}
}

// FakeBackend is an in-process stand-in for the storefront REST API.
type FakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	submitted []map[string]any
	cancelled []string
}

const (
	fakeToken   = "integration-token"
	fakeOrderID = "665f0000abcd"
)

// NewFakeBackend serves a two-product catalogue and a single-order history.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/categories/getallcategories", func(w http.ResponseWriter, r *http.Request) {
		writeFake(w, http.StatusOK, `{"data":[{"_id":"c1","name":"Dinner Sets"},{"_id":"c2","name":"Serving Bowls"}]}`)
	})

	mux.HandleFunc("GET /api/products/getallproducts", func(w http.ResponseWriter, r *http.Request) {
		writeFake(w, http.StatusOK, `{"data":{"products":[
			{"_id":"p1","productName":"Lotus Plate","price":500,"discountPrice":450,"priceUSD":6,"category":{"_id":"c1"},"productImages":["uploads/plate.jpg"],"createdAt":"2026-01-02T00:00:00Z"},
			{"_id":"p2","productName":"Brass Bowl","price":1200,"priceUSD":15,"category":{"_id":"c2"},"productImages":["uploads/bowl.jpg"],"bestSeller":true,"createdAt":"2026-02-02T00:00:00Z"}
		]}}`)
	})

	mux.HandleFunc("POST /api/orders/createOrderByCustomer", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		var sub map[string]any
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeFake(w, http.StatusBadRequest, `{"message":"bad order"}`)
			return
		}
		fb.mu.Lock()
		fb.submitted = append(fb.submitted, sub)
		fb.mu.Unlock()
		writeFake(w, http.StatusCreated, `{"data":{"order":{"_id":"`+fakeOrderID+`"}}}`)
	})

	mux.HandleFunc("GET /api/orders/customer", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeFake(w, http.StatusOK, `{"data":{"orders":[
			{"_id":"`+fakeOrderID+`","orderStatus":"Pending","paymentStatus":"Pending","totalAmount":945,"createdAt":"2026-03-01T09:30:00Z"}
		]}}`)
	})

	mux.HandleFunc("POST /api/orders/{id}/cancel-by-customer", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		fb.mu.Lock()
		fb.cancelled = append(fb.cancelled, r.PathValue("id"))
		fb.mu.Unlock()
		writeFake(w, http.StatusOK, `{"success":true}`)
	})

	mux.HandleFunc("GET /api/orders/{id}/invoice", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4 fake")
	})

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

// Submitted returns the order bodies the backend received.
func (fb *FakeBackend) Submitted() []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]map[string]any(nil), fb.submitted...)
}

// Cancelled returns the order ids the backend was asked to cancel.
func (fb *FakeBackend) Cancelled() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.cancelled...)
}

func authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+fakeToken {
		writeFake(w, http.StatusUnauthorized, `{"message":"Session expired"}`)
		return false
	}
	return true
}

func writeFake(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
