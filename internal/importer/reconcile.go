package importer

import (
	"fmt"
	"log"
	"sort"
	"time"

	"docshub/pkg/models"
)

// RevisionPolicy decides the revision_number assigned to a revision
// created for a document that may already have revisions.
type RevisionPolicy string

const (
	// RevisionPolicyStatic always assigns revision 1. Re-importing a
	// document that already carries revision 1 then fails on the
	// (document, revision_number) uniqueness constraint and aborts the
	// run; the conflict is surfaced, not worked around.
	RevisionPolicyStatic RevisionPolicy = "static"
	// RevisionPolicyIncrement assigns 1 + the highest existing number.
	RevisionPolicyIncrement RevisionPolicy = "increment"
)

func (p RevisionPolicy) Valid() bool {
	return p == RevisionPolicyStatic || p == RevisionPolicyIncrement
}

// ReconcileOptions carries the run-scoped inputs of the join step.
type ReconcileOptions struct {
	ZoteroBaseURL string
	GroupID       int64
	Policy        RevisionPolicy
	Now           func() time.Time
}

// LinkWrite is one pending EntityDocument row.
type LinkWrite struct {
	EntityTypeID int64
	EntityKey    string
}

// DocumentWrite is everything to persist for one join key: the document
// (created if Existing is nil), one new revision, its transcriptions and
// the entity links.
type DocumentWrite struct {
	Key            string
	Existing       *models.Document
	Revision       models.DocumentRevision
	Transcriptions []models.Transcription
	Links          []LinkWrite
}

// WriteSet is the full derived output of one reconciliation pass,
// ordered by join key.
type WriteSet struct {
	Writes  []DocumentWrite
	Skipped int
}

// Reconcile joins the two fetched datasets. For every Voyages record it
// either derives a complete DocumentWrite or skips the key when the join
// is incomplete (no Zotero match, or no pages). Existing documents are
// reused as-is; only missing ones are created.
func Reconcile(
	zotero map[string]Metadata,
	voyages map[string]VoyageRecord,
	existing map[string]*models.Document,
	entityTypes map[string]*models.EntityType,
	opts ReconcileOptions,
) (*WriteSet, error) {
	if !opts.Policy.Valid() {
		return nil, fmt.Errorf("unknown revision policy %q", opts.Policy)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	keys := make([]string, 0, len(voyages))
	for k := range voyages {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ws := &WriteSet{}
	for _, key := range keys {
		rec := voyages[key]
		pages := make([]PageImage, 0, len(rec.PageConnections))
		for _, pc := range rec.PageConnections {
			pages = append(pages, pc.Page)
		}

		// an entry whose RDF carried no recognized fields is as useless
		// as a missing one: nothing to build a revision from
		md, matched := zotero[key]
		if !matched || len(md) == 0 || len(pages) == 0 {
			log.Printf("[importer] skipping %s: matched=%v fields=%d pages=%d", key, matched, len(md), len(pages))
			ws.Skipped++
			continue
		}

		w := DocumentWrite{Key: key, Existing: existing[key]}

		label, ok := md.Get("Title")
		if !ok {
			label = "No title"
		}
		w.Revision = models.DocumentRevision{
			Label:          label,
			Status:         models.StatusImported,
			RevisionNumber: nextRevisionNumber(w.Existing, opts.Policy),
			Timestamp:      now(),
			Content:        buildContent(md, pages, key, opts),
		}

		links, err := entityLinks(rec, entityTypes)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", key, err)
		}
		w.Links = links

		for i, p := range pages {
			if p.Transcription == "" {
				continue
			}
			// The source API carries no language code yet; transcripts
			// are recorded as English originals.
			w.Transcriptions = append(w.Transcriptions, models.Transcription{
				PageNumber:    i + 1,
				LanguageCode:  "en",
				Text:          p.Transcription,
				IsTranslation: false,
			})
		}

		ws.Writes = append(ws.Writes, w)
	}
	return ws, nil
}

func nextRevisionNumber(doc *models.Document, policy RevisionPolicy) int {
	if policy == RevisionPolicyStatic || doc == nil {
		return 1
	}
	highest := 0
	for _, rev := range doc.Revisions {
		if rev.RevisionNumber > highest {
			highest = rev.RevisionNumber
		}
	}
	return highest + 1
}

func buildContent(md Metadata, pages []PageImage, key string, opts ReconcileOptions) models.RevisionContent {
	metadata := make([]models.LabelValue, 0, len(md)+1)
	for _, f := range md {
		metadata = append(metadata, models.MakeLabelValue(f.Label, []string{f.Value}, "en"))
	}
	citation := fmt.Sprintf("<span><a href='%s/groups/%d/items/%s'>Zotero Entry</a></span>",
		opts.ZoteroBaseURL, opts.GroupID, key)
	metadata = append(metadata, models.MakeLabelValue("Citation", []string{citation}, "en"))

	images := make([]string, len(pages))
	for i, p := range pages {
		images[i] = p.IIIFBaseImageURL
	}
	return models.RevisionContent{Metadata: metadata, PageImages: images}
}

func entityLinks(rec VoyageRecord, types map[string]*models.EntityType) ([]LinkWrite, error) {
	var links []LinkWrite
	add := func(typeName string, ref *EntityRef) error {
		if ref == nil || ref.ID == "" {
			return nil
		}
		t, ok := types[typeName]
		if !ok {
			return fmt.Errorf("entity type %q is not seeded", typeName)
		}
		links = append(links, LinkWrite{EntityTypeID: t.ID, EntityKey: ref.ID.String()})
		return nil
	}

	for _, conn := range rec.SourceVoyageConnections {
		if err := add("Voyages", conn.Voyage); err != nil {
			return nil, err
		}
	}
	for _, conn := range rec.SourceEnslavedConnections {
		if err := add("Enslaved", conn.Enslaved); err != nil {
			return nil, err
		}
	}
	for _, conn := range rec.SourceEnslaverConnections {
		if err := add("Enslavers", conn.Enslaver); err != nil {
			return nil, err
		}
	}
	return links, nil
}
