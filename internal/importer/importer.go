package importer

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"

	"docshub/internal/docs"
	"docshub/pkg/models"
)

// Config is the full configuration of one import run.
type Config struct {
	ZoteroURL       string
	ZoteroKey       string
	ZoteroUserID    string
	ZoteroGroupName string

	VoyagesURL string
	VoyagesKey string

	IgnoreCache bool
	CacheDir    string

	// MaxErrors is the consecutive-failure budget per fetch loop;
	// defaults to maxConsecutiveErrors when zero.
	MaxErrors int

	Policy      RevisionPolicy
	DedupeLinks bool
}

// Result summarizes a completed run.
type Result struct {
	RunID    string
	Imported int
	Skipped  int
}

// Run executes the whole pipeline: resolve the Zotero group, fetch both
// sources (through the cache), join them against current storage state
// and apply the derived writes in one transaction.
func Run(ctx context.Context, db *sql.DB, cfg Config) (*Result, error) {
	runID := uuid.NewString()
	log.Printf("[importer] starting run %s", runID)

	maxErrors := cfg.MaxErrors
	if maxErrors <= 0 {
		maxErrors = maxConsecutiveErrors
	}

	zc := NewZoteroClient(cfg.ZoteroURL, cfg.ZoteroKey)
	groupID, err := zc.LookupGroupID(ctx, cfg.ZoteroUserID, cfg.ZoteroGroupName)
	if err != nil {
		return nil, err
	}
	log.Printf("[importer] Zotero group id is %d", groupID)

	cache := Cache{Dir: cfg.CacheDir}

	var (
		zoteroData map[string]Metadata
		ok         bool
	)
	if !cfg.IgnoreCache {
		zoteroData, ok = cache.LoadZotero()
	}
	if !ok {
		zoteroData, err = fetchAll(ctx, "Zotero", maxErrors, func(ctx context.Context, offset int) (map[string]Metadata, int, error) {
			return zc.Page(ctx, groupID, offset)
		})
		if err != nil {
			return nil, err
		}
		cache.SaveZotero(zoteroData)
	}

	vc := NewVoyagesClient(cfg.VoyagesURL, cfg.VoyagesKey)
	var voyagesData map[string]VoyageRecord
	ok = false
	if !cfg.IgnoreCache {
		voyagesData, ok = cache.LoadVoyages()
	}
	if !ok {
		voyagesData, err = fetchAll(ctx, "Voyages", maxErrors, vc.Page)
		if err != nil {
			return nil, err
		}
		cache.SaveVoyages(voyagesData)
	}

	repo := docs.NewRepo(db)
	existingDocs, err := repo.ListWithRevisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	byKey := make(map[string]*models.Document, len(existingDocs))
	for i := range existingDocs {
		byKey[existingDocs[i].Key] = &existingDocs[i]
	}

	types, err := repo.EntityTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entity types: %w", err)
	}
	byName := make(map[string]*models.EntityType, len(types))
	for i := range types {
		byName[types[i].Name] = &types[i]
	}

	ws, err := Reconcile(zoteroData, voyagesData, byKey, byName, ReconcileOptions{
		ZoteroBaseURL: cfg.ZoteroURL,
		GroupID:       groupID,
		Policy:        cfg.Policy,
	})
	if err != nil {
		return nil, err
	}

	if err := Apply(ctx, db, ws, ApplyOptions{DedupeLinks: cfg.DedupeLinks}); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Imported: len(ws.Writes), Skipped: ws.Skipped}
	log.Printf("[importer] import finished: %d documents imported, %d skipped", res.Imported, res.Skipped)
	return res, nil
}
