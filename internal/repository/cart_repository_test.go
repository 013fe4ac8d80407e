package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func sampleLines() []model.CartLine {
	return []model.CartLine{
		{ProductID: "p2", Name: "Bowl", Image: "uploads/bowl.jpg", UnitPrice: decimal.RequireFromString("49.995"), Quantity: 3},
		{ProductID: "p1", Name: "Plate", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
	}
}

// exerciseCartRepository checks the behaviour every store must share.
func exerciseCartRepository(t *testing.T, repo CartRepository) {
	ctx := context.Background()

	t.Run("missing cart loads as nil", func(t *testing.T) {
		lines, err := repo.Load(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("save then load keeps order and prices", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s1", sampleLines()))

		lines, err := repo.Load(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, "p2", lines[0].ProductID)
		assert.Equal(t, "uploads/bowl.jpg", lines[0].Image)
		assert.True(t, decimal.RequireFromString("49.995").Equal(lines[0].UnitPrice))
		assert.Equal(t, 3, lines[0].Quantity)
		assert.Equal(t, "p1", lines[1].ProductID)
	})

	t.Run("save replaces previous lines", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s2", sampleLines()))
		require.NoError(t, repo.Save(ctx, "s2", []model.CartLine{
			{ProductID: "p9", Name: "Mug", UnitPrice: decimal.NewFromInt(5), Quantity: 2},
		}))

		lines, err := repo.Load(ctx, "s2")
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "p9", lines[0].ProductID)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s3", sampleLines()[:1]))
		require.NoError(t, repo.Save(ctx, "s4", sampleLines()))

		a, err := repo.Load(ctx, "s3")
		require.NoError(t, err)
		b, err := repo.Load(ctx, "s4")
		require.NoError(t, err)
		assert.Len(t, a, 1)
		assert.Len(t, b, 2)
	})

	t.Run("delete removes cart", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s5", sampleLines()))
		require.NoError(t, repo.Delete(ctx, "s5"))
		require.NoError(t, repo.Delete(ctx, "s5"), "deleting twice is fine")

		lines, err := repo.Load(ctx, "s5")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestMemoryCartRepository(t *testing.T) {
	exerciseCartRepository(t, NewMemoryCartRepository(zerolog.Nop()))
}

func TestMemoryCartRepository_CopiesLines(t *testing.T) {
	repo := NewMemoryCartRepository(zerolog.Nop())
	ctx := context.Background()

	lines := sampleLines()
	require.NoError(t, repo.Save(ctx, "s1", lines))
	lines[0].Quantity = 99

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded[0].Quantity)

	loaded[1].Quantity = 42
	again, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, again[1].Quantity)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisCartRepository(t *testing.T) {
	_, client := setupRedis(t)
	exerciseCartRepository(t, NewRedisCartRepository(client, time.Hour, zerolog.Nop()))
}

func TestRedisCartRepository_TTL(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewRedisCartRepository(client, 30*time.Minute, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", sampleLines()))
	assert.True(t, mr.Exists("cart:s1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("cart:s1"))

	mr.FastForward(31 * time.Minute)

	lines, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestRedisCartRepository_CorruptValue(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewRedisCartRepository(client, time.Hour, zerolog.Nop())

	require.NoError(t, mr.Set("cart:bad", "not json"))

	_, err := repo.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode cart")
}

func TestRedisCartRepository_ServerDown(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewRedisCartRepository(client, time.Hour, zerolog.Nop())
	mr.Close()

	err := repo.Save(context.Background(), "s1", sampleLines())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save cart")
}

// setupPostgres starts a PostgreSQL container with the cart schema applied.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(connStr, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})
	return pool
}

func TestPostgresCartRepository(t *testing.T) {
	pool := setupPostgres(t)
	exerciseCartRepository(t, NewPostgresCartRepository(pool, zerolog.Nop()))
}

func TestPostgresCartRepository_FailedSaveKeepsPreviousCart(t *testing.T) {
	pool := setupPostgres(t)
	repo := NewPostgresCartRepository(pool, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", sampleLines()))

	// a zero quantity violates the table's check constraint
	err := repo.Save(ctx, "s1", []model.CartLine{
		{ProductID: "p1", UnitPrice: decimal.NewFromInt(1), Quantity: 1},
		{ProductID: "p2", UnitPrice: decimal.NewFromInt(1), Quantity: 0},
	})
	require.Error(t, err)

	lines, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, lines, 2, "the transaction rolled back")
	assert.Equal(t, 3, lines[0].Quantity)
}
