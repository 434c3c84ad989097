package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

func TestExportAudience(t *testing.T) {
	newExportFixture := func(t *testing.T) (*ExportService, *fakeObjectStore) {
		t.Helper()
		db := newFakeDB()
		seedPersonas(db, "user-1", "aud-1", 2)
		store := newFakeObjectStore()
		return NewExportService(db, store, "test-bucket"), store
	}

	t.Run("csv", func(t *testing.T) {
		svc, store := newExportFixture(t)

		url, err := svc.ExportAudience(context.Background(), "user-1", "aud-1", "csv")
		require.NoError(t, err)
		assert.Contains(t, url, "test-bucket")
		assert.Contains(t, url, "users/user-1/exports/")

		var body []byte
		for key, b := range store.objects {
			assert.True(t, strings.HasSuffix(key, ".csv"))
			body = b
		}
		rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3) // header + 2 personas
		assert.Equal(t, "persona_id", rows[0][0])
		assert.Equal(t, "Maya", rows[1][2])
	})

	t.Run("json", func(t *testing.T) {
		svc, store := newExportFixture(t)

		_, err := svc.ExportAudience(context.Background(), "user-1", "aud-1", "json")
		require.NoError(t, err)

		for _, b := range store.objects {
			var personas []models.Persona
			require.NoError(t, json.Unmarshal(b, &personas))
			assert.Len(t, personas, 2)
		}
	})

	t.Run("empty format defaults to csv", func(t *testing.T) {
		svc, store := newExportFixture(t)
		_, err := svc.ExportAudience(context.Background(), "user-1", "aud-1", "")
		require.NoError(t, err)
		for key := range store.objects {
			assert.True(t, strings.HasSuffix(key, ".csv"))
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		svc, _ := newExportFixture(t)
		_, err := svc.ExportAudience(context.Background(), "user-1", "aud-1", "xlsx")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("nothing to export", func(t *testing.T) {
		svc := NewExportService(newFakeDB(), newFakeObjectStore(), "test-bucket")
		_, err := svc.ExportAudience(context.Background(), "user-1", "aud-1", "csv")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
