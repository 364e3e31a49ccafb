package importer

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

const (
	zoteroCacheFile  = ".cached_zotero_data"
	voyagesCacheFile = ".cached_voyages_data"
)

// Cache persists each source's full fetched snapshot so repeated runs
// can skip the network. It is strictly best-effort: a missing or corrupt
// file is a miss, and a failed save never aborts the run.
type Cache struct {
	Dir string
}

func (c Cache) path(name string) string {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

func loadSnapshot[T any](c Cache, file, source string) (map[string]T, bool) {
	b, err := os.ReadFile(c.path(file))
	if err != nil {
		log.Printf("[importer] no cached %s data", source)
		return nil, false
	}
	var snap map[string]T
	if err := json.Unmarshal(b, &snap); err != nil {
		log.Printf("[importer] ignoring corrupt %s cache: %v", source, err)
		return nil, false
	}
	log.Printf("[importer] loaded %d %s entries from cache", len(snap), source)
	return snap, true
}

func saveSnapshot[T any](c Cache, file, source string, snap map[string]T) {
	b, err := json.Marshal(snap)
	if err == nil {
		err = os.WriteFile(c.path(file), b, 0o644)
	}
	if err != nil {
		log.Printf("[importer] failed to write %s data to the cache: %v", source, err)
	}
}

func (c Cache) LoadZotero() (map[string]Metadata, bool) {
	return loadSnapshot[Metadata](c, zoteroCacheFile, "Zotero")
}

func (c Cache) SaveZotero(snap map[string]Metadata) {
	saveSnapshot(c, zoteroCacheFile, "Zotero", snap)
}

func (c Cache) LoadVoyages() (map[string]VoyageRecord, bool) {
	return loadSnapshot[VoyageRecord](c, voyagesCacheFile, "Voyages")
}

func (c Cache) SaveVoyages(snap map[string]VoyageRecord) {
	saveSnapshot(c, voyagesCacheFile, "Voyages", snap)
}
