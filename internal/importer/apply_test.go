package importer

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docshub/pkg/database"
	"docshub/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func sampleWrite(key string) DocumentWrite {
	return DocumentWrite{
		Key: key,
		Revision: models.DocumentRevision{
			Label:          "sample",
			Status:         models.StatusImported,
			RevisionNumber: 1,
			Timestamp:      time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
			Content: models.RevisionContent{
				Metadata:   []models.LabelValue{models.MakeLabelValue("Title", []string{"sample"}, "en")},
				PageImages: []string{"https://iiif.example/1", ""},
			},
		},
		Transcriptions: []models.Transcription{
			{PageNumber: 1, LanguageCode: "en", Text: "folio one", IsTranslation: false},
		},
		Links: []LinkWrite{{EntityTypeID: 1, EntityKey: "901"}},
	}
}

func TestApplyPersistsWriteSet(t *testing.T) {
	db := openTestDB(t)
	ws := &WriteSet{Writes: []DocumentWrite{sampleWrite("KEY1")}}

	require.NoError(t, Apply(context.Background(), db, ws, ApplyOptions{}))

	assert.Equal(t, 1, countRows(t, db, "documents"))
	assert.Equal(t, 1, countRows(t, db, "document_revisions"))
	assert.Equal(t, 1, countRows(t, db, "transcriptions"))
	assert.Equal(t, 1, countRows(t, db, "entity_documents"))

	var (
		label   string
		status  int
		content string
	)
	require.NoError(t, db.QueryRow(`
		SELECT r.label, r.status, r.content
		FROM document_revisions r JOIN documents d ON d.id = r.document_id
		WHERE d.key = 'KEY1'
	`).Scan(&label, &status, &content))
	assert.Equal(t, "sample", label)
	assert.Equal(t, int(models.StatusImported), status)
	assert.Contains(t, content, `"page_images":["https://iiif.example/1",""]`)
}

func TestApplyReusesExistingDocument(t *testing.T) {
	db := openTestDB(t)

	res, err := db.Exec(`INSERT INTO documents (key) VALUES ('KEY1')`)
	require.NoError(t, err)
	docID, err := res.LastInsertId()
	require.NoError(t, err)

	w := sampleWrite("KEY1")
	w.Existing = &models.Document{ID: docID, Key: "KEY1"}
	require.NoError(t, Apply(context.Background(), db, &WriteSet{Writes: []DocumentWrite{w}}, ApplyOptions{}))

	assert.Equal(t, 1, countRows(t, db, "documents"), "existing document must not be duplicated")
	assert.Equal(t, 1, countRows(t, db, "document_revisions"))
}

func TestApplyIsAtomic(t *testing.T) {
	db := openTestDB(t)

	good := sampleWrite("KEY1")
	bad := sampleWrite("KEY1") // same key: UNIQUE(documents.key) fires on the second insert
	ws := &WriteSet{Writes: []DocumentWrite{good, bad}}

	err := Apply(context.Background(), db, ws, ApplyOptions{})
	require.Error(t, err)

	assert.Equal(t, 0, countRows(t, db, "documents"), "failed run must leave no partial writes")
	assert.Equal(t, 0, countRows(t, db, "document_revisions"))
	assert.Equal(t, 0, countRows(t, db, "transcriptions"))
	assert.Equal(t, 0, countRows(t, db, "entity_documents"))
}

func TestApplyStaticRevisionConflictSurfaces(t *testing.T) {
	db := openTestDB(t)

	ws := &WriteSet{Writes: []DocumentWrite{sampleWrite("KEY1")}}
	require.NoError(t, Apply(context.Background(), db, ws, ApplyOptions{}))

	// re-import of the same key under the static policy: revision 1 again,
	// against the now-existing document
	var docID int64
	require.NoError(t, db.QueryRow(`SELECT id FROM documents WHERE key = 'KEY1'`).Scan(&docID))
	again := sampleWrite("KEY1")
	again.Existing = &models.Document{ID: docID, Key: "KEY1"}

	err := Apply(context.Background(), db, &WriteSet{Writes: []DocumentWrite{again}}, ApplyOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE")
	assert.Equal(t, 1, countRows(t, db, "document_revisions"))
}

func TestApplyLinkDedupe(t *testing.T) {
	db := openTestDB(t)

	first := sampleWrite("KEY1")
	require.NoError(t, Apply(context.Background(), db, &WriteSet{Writes: []DocumentWrite{first}}, ApplyOptions{}))

	var docID int64
	require.NoError(t, db.QueryRow(`SELECT id FROM documents WHERE key = 'KEY1'`).Scan(&docID))

	again := sampleWrite("KEY1")
	again.Existing = &models.Document{ID: docID, Key: "KEY1"}
	again.Revision.RevisionNumber = 2

	// default: duplicates accumulate
	require.NoError(t, Apply(context.Background(), db, &WriteSet{Writes: []DocumentWrite{again}}, ApplyOptions{}))
	assert.Equal(t, 2, countRows(t, db, "entity_documents"))

	third := sampleWrite("KEY1")
	third.Existing = again.Existing
	third.Revision.RevisionNumber = 3
	require.NoError(t, Apply(context.Background(), db, &WriteSet{Writes: []DocumentWrite{third}}, ApplyOptions{DedupeLinks: true}))
	assert.Equal(t, 2, countRows(t, db, "entity_documents"), "dedupe must skip the identical link")
}
