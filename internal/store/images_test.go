package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/store"
)

func imageRows(pool pgxmock.PgxPoolIface, images ...model.GeneratedImage) *pgxmock.Rows {
	rows := pool.NewRows([]string{"id", "url", "prompt", "user_id", "created_at"})
	for _, img := range images {
		rows.AddRow(img.ID, img.URL, img.Prompt, img.UserID, img.CreatedAt)
	}
	return rows
}

func TestQueries_CreateGeneratedImage(t *testing.T) {
	t.Run("Should insert image with permanent URL", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		want := model.GeneratedImage{
			ID:        "img-1",
			URL:       "https://utfs.io/f/abc123.png",
			Prompt:    "a sunrise over mountains",
			UserID:    "u-1",
			CreatedAt: time.Now().UTC(),
		}
		pool.ExpectQuery("INSERT INTO generated_images").
			WithArgs("img-1", want.URL, want.Prompt, "u-1", pgxmock.AnyArg()).
			WillReturnRows(imageRows(pool, want))

		got, err := store.New(pool).CreateGeneratedImage(context.Background(), store.CreateGeneratedImageParams{
			ID:     "img-1",
			URL:    want.URL,
			Prompt: want.Prompt,
			UserID: "u-1",
		})
		assert.NoError(t, err)
		assert.Equal(t, want.URL, got.URL)
		assert.Equal(t, "u-1", got.UserID)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestQueries_ListImagesByUser(t *testing.T) {
	t.Run("Should list a user's images newest first", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		now := time.Now().UTC()
		imgs := []model.GeneratedImage{
			{ID: "img-2", URL: "https://utfs.io/f/two.png", Prompt: "two", UserID: "u-1", CreatedAt: now},
			{ID: "img-1", URL: "https://utfs.io/f/one.png", Prompt: "one", UserID: "u-1", CreatedAt: now.Add(-time.Hour)},
		}
		pool.ExpectQuery(`SELECT (.+) FROM generated_images WHERE user_id = \$1 ORDER BY created_at DESC`).
			WithArgs("u-1").
			WillReturnRows(imageRows(pool, imgs...))

		got, err := store.New(pool).ListImagesByUser(context.Background(), "u-1")
		assert.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "img-2", got[0].ID)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should return empty list for user without images", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectQuery(`SELECT (.+) FROM generated_images`).
			WithArgs("u-2").
			WillReturnRows(imageRows(pool))

		got, err := store.New(pool).ListImagesByUser(context.Background(), "u-2")
		assert.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestQueries_CreateEvent(t *testing.T) {
	t.Run("Should insert event with metadata default", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectExec("INSERT INTO events").
			WithArgs(model.EventLevelWarning, model.EventCategoryAuth, "login failed", "{}", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = store.New(pool).CreateEvent(context.Background(), store.CreateEventParams{
			Level:     model.EventLevelWarning,
			Category:  model.EventCategoryAuth,
			Message:   "login failed",
			CreatedAt: time.Now(),
		})
		assert.NoError(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}
