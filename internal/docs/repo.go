package docs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"docshub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// ListWithRevisions loads every document with its revisions eagerly
// attached, ordered by revision_number. This is the read the importer
// uses to decide which documents already exist.
func (r *Repo) ListWithRevisions(ctx context.Context) ([]models.Document, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, key, current_rev FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	index := make(map[int64]int)
	for rows.Next() {
		var (
			d          models.Document
			currentRev sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.Key, &currentRev); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if currentRev.Valid {
			n := int(currentRev.Int64)
			d.CurrentRev = &n
		}
		index[d.ID] = len(out)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documents rows: %w", err)
	}

	revRows, err := r.DB.QueryContext(ctx, `
		SELECT id, document_id, label, status, revision_number, timestamp, content
		FROM document_revisions
		ORDER BY document_id, revision_number
	`)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer revRows.Close()

	for revRows.Next() {
		rev, err := scanRevision(revRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[rev.DocumentID]; ok {
			out[i].Revisions = append(out[i].Revisions, *rev)
		}
	}
	if err := revRows.Err(); err != nil {
		return nil, fmt.Errorf("revisions rows: %w", err)
	}
	return out, nil
}

// List returns a page of documents without their revisions, newest
// first, for the public listing endpoint.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]models.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, key, current_rev FROM documents
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var (
			d          models.Document
			currentRev sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.Key, &currentRev); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if currentRev.Valid {
			n := int(currentRev.Int64)
			d.CurrentRev = &n
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documents rows: %w", err)
	}
	return out, nil
}

// GetByKey returns one document with its revisions, or nil when absent.
func (r *Repo) GetByKey(ctx context.Context, key string) (*models.Document, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, key, current_rev FROM documents WHERE key = ?
	`, key)

	var (
		d          models.Document
		currentRev sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.Key, &currentRev); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if currentRev.Valid {
		n := int(currentRev.Int64)
		d.CurrentRev = &n
	}

	revRows, err := r.DB.QueryContext(ctx, `
		SELECT id, document_id, label, status, revision_number, timestamp, content
		FROM document_revisions
		WHERE document_id = ?
		ORDER BY revision_number
	`, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer revRows.Close()

	for revRows.Next() {
		rev, err := scanRevision(revRows)
		if err != nil {
			return nil, err
		}
		d.Revisions = append(d.Revisions, *rev)
	}
	if err := revRows.Err(); err != nil {
		return nil, fmt.Errorf("revisions rows: %w", err)
	}
	return &d, nil
}

// GetRevision returns one revision of a document with its transcriptions
// attached, or nil when either the document or the revision is absent.
func (r *Repo) GetRevision(ctx context.Context, key string, number int) (*models.DocumentRevision, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT r.id, r.document_id, r.label, r.status, r.revision_number, r.timestamp, r.content
		FROM document_revisions r
		JOIN documents d ON d.id = r.document_id
		WHERE d.key = ? AND r.revision_number = ?
	`, key, number)

	rev, err := scanRevision(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	trRows, err := r.DB.QueryContext(ctx, `
		SELECT id, document_rev_id, page_number, language_code, text, is_translation
		FROM transcriptions
		WHERE document_rev_id = ?
		ORDER BY page_number
	`, rev.ID)
	if err != nil {
		return nil, fmt.Errorf("list transcriptions: %w", err)
	}
	defer trRows.Close()

	for trRows.Next() {
		var t models.Transcription
		if err := trRows.Scan(&t.ID, &t.DocumentRevID, &t.PageNumber, &t.LanguageCode, &t.Text, &t.IsTranslation); err != nil {
			return nil, fmt.Errorf("scan transcription: %w", err)
		}
		rev.Transcriptions = append(rev.Transcriptions, t)
	}
	if err := trRows.Err(); err != nil {
		return nil, fmt.Errorf("transcriptions rows: %w", err)
	}
	return rev, nil
}

// EntityTypes returns the seeded reference rows.
func (r *Repo) EntityTypes(ctx context.Context) ([]models.EntityType, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, url_format FROM entity_types ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list entity types: %w", err)
	}
	defer rows.Close()

	var out []models.EntityType
	for rows.Next() {
		var t models.EntityType
		if err := rows.Scan(&t.ID, &t.Name, &t.URLFormat); err != nil {
			return nil, fmt.Errorf("scan entity type: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entity types rows: %w", err)
	}
	return out, nil
}

// Links returns the entity links of a document.
func (r *Repo) Links(ctx context.Context, documentID int64) ([]models.EntityDocument, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, document_id, entity_type_id, entity_key, notes
		FROM entity_documents
		WHERE document_id = ?
		ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []models.EntityDocument
	for rows.Next() {
		var (
			l     models.EntityDocument
			notes sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.EntityTypeID, &l.EntityKey, &notes); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.Notes = notes.String
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("links rows: %w", err)
	}
	return out, nil
}

// CreateContribution appends a user-submitted revision to an existing
// document. The revision number is one past the current highest for the
// document, assigned inside the same transaction as the insert.
func (r *Repo) CreateContribution(ctx context.Context, key, label string, content models.RevisionContent) (*models.DocumentRevision, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin contribution: %w", err)
	}
	defer tx.Rollback()

	var docID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE key = ?`, key).Scan(&docID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(revision_number), 0) + 1
		FROM document_revisions
		WHERE document_id = ?
	`, docID).Scan(&next); err != nil {
		return nil, fmt.Errorf("next revision number: %w", err)
	}

	rev := models.DocumentRevision{
		DocumentID:     docID,
		Label:          label,
		Status:         models.StatusContribution,
		RevisionNumber: next,
		Timestamp:      time.Now(),
		Content:        content,
	}

	raw, err := json.Marshal(rev.Content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO document_revisions (document_id, label, status, revision_number, timestamp, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, docID, rev.Label, int(rev.Status), rev.RevisionNumber,
		rev.Timestamp.UTC().Format(time.RFC3339), string(raw))
	if err != nil {
		return nil, fmt.Errorf("insert contribution: %w", err)
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("contribution id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit contribution: %w", err)
	}
	return &rev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (*models.DocumentRevision, error) {
	var (
		rev     models.DocumentRevision
		status  int
		revNum  sql.NullInt64
		ts      string
		rawJSON string
	)
	if err := row.Scan(&rev.ID, &rev.DocumentID, &rev.Label, &status, &revNum, &ts, &rawJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan revision: %w", err)
	}
	rev.Status = models.RevisionStatus(status)
	if revNum.Valid {
		rev.RevisionNumber = int(revNum.Int64)
	}
	if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
		rev.Timestamp = parsed
	}
	if err := json.Unmarshal([]byte(rawJSON), &rev.Content); err != nil {
		return nil, fmt.Errorf("decode content of revision %d: %w", rev.ID, err)
	}
	return &rev, nil
}
