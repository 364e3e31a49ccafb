package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"docshub/internal/importer"
	"docshub/pkg/database"
)

func main() {
	_ = godotenv.Load()

	var (
		voyagesKey = flag.String("voyages-key", "", "Voyages API access token")
		voyagesURL = flag.String("voyages-url", "", "Voyages API base URL")
		zoteroKey  = flag.String("zotero-key", "", "Zotero API access token")
		zoteroURL  = flag.String("zotero-url", "https://api.zotero.org", "Zotero API base URL")
		groupName  = flag.String("zotero-groupname", "sv-docs", "Zotero group holding the document library")
		userID     = flag.String("zotero-userid", "", "Zotero user id used to resolve the group")

		ignoreCache = flag.Bool("ignore-cache", false, "bypass cached source snapshots")
		cacheDir    = flag.String("cache-dir", ".", "directory for cached source snapshots")

		revisionPolicy = flag.String("revision-policy", string(importer.RevisionPolicyStatic),
			"revision numbering for re-imported documents: static or increment")
		dedupeLinks = flag.Bool("dedupe-links", false, "skip entity links that already exist")
	)
	flag.Parse()

	if *voyagesURL == "" || *userID == "" {
		log.Fatal("flags --voyages-url and --zotero-userid are required")
	}
	policy := importer.RevisionPolicy(*revisionPolicy)
	if !policy.Valid() {
		log.Fatalf("invalid --revision-policy %q", *revisionPolicy)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	res, err := importer.Run(context.Background(), db, importer.Config{
		ZoteroURL:       *zoteroURL,
		ZoteroKey:       *zoteroKey,
		ZoteroUserID:    *userID,
		ZoteroGroupName: *groupName,
		VoyagesURL:      *voyagesURL,
		VoyagesKey:      *voyagesKey,
		IgnoreCache:     *ignoreCache,
		CacheDir:        *cacheDir,
		Policy:          policy,
		DedupeLinks:     *dedupeLinks,
	})
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("run %s done: %d documents imported, %d skipped", res.RunID, res.Imported, res.Skipped)
}
