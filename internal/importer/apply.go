package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ApplyOptions tunes the write phase.
type ApplyOptions struct {
	// DedupeLinks skips an entity link when an identical
	// (document, entity_type, entity_key) row already exists. Off by
	// default: links are inserted unconditionally, so re-running the
	// import over unchanged data duplicates them.
	DedupeLinks bool
}

// Apply persists the whole write set inside one transaction. Any failure
// rolls everything back; a run never leaves partial writes behind.
func Apply(ctx context.Context, db *sql.DB, ws *WriteSet, opts ApplyOptions) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, w := range ws.Writes {
		if err := applyOne(ctx, tx, w, opts); err != nil {
			return fmt.Errorf("apply %s: %w", w.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func applyOne(ctx context.Context, tx *sql.Tx, w DocumentWrite, opts ApplyOptions) error {
	var docID int64
	if w.Existing != nil {
		docID = w.Existing.ID
	} else {
		res, err := tx.ExecContext(ctx, `INSERT INTO documents (key) VALUES (?)`, w.Key)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		if docID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("document id: %w", err)
		}
	}

	content, err := json.Marshal(w.Revision.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO document_revisions (document_id, label, status, revision_number, timestamp, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, docID, w.Revision.Label, int(w.Revision.Status), w.Revision.RevisionNumber,
		w.Revision.Timestamp.UTC().Format(time.RFC3339), string(content))
	if err != nil {
		return fmt.Errorf("insert revision %d: %w", w.Revision.RevisionNumber, err)
	}
	revID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("revision id: %w", err)
	}

	for _, l := range w.Links {
		if opts.DedupeLinks {
			var exists bool
			err := tx.QueryRowContext(ctx, `
				SELECT EXISTS (
					SELECT 1 FROM entity_documents
					WHERE document_id = ? AND entity_type_id = ? AND entity_key = ?
				)
			`, docID, l.EntityTypeID, l.EntityKey).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check link: %w", err)
			}
			if exists {
				continue
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entity_documents (document_id, entity_type_id, entity_key)
			VALUES (?, ?, ?)
		`, docID, l.EntityTypeID, l.EntityKey); err != nil {
			return fmt.Errorf("insert entity link: %w", err)
		}
	}

	for _, t := range w.Transcriptions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transcriptions (document_rev_id, page_number, language_code, text, is_translation)
			VALUES (?, ?, ?, ?, ?)
		`, revID, t.PageNumber, t.LanguageCode, t.Text, t.IsTranslation); err != nil {
			return fmt.Errorf("insert transcription page %d: %w", t.PageNumber, err)
		}
	}

	return nil
}
