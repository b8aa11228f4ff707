package domain

// Counters is a read-only snapshot of the daemonic cache counters.
type Counters struct {
	FilesChanged                              int64 `json:"files_changed"`
	RulesInvalidatedByWatchEvents             int64 `json:"rules_invalidated_by_watch_events"`
	BuildFilesInvalidatedByAddOrRemove        int64 `json:"build_files_invalidated_by_add_or_remove"`
	PathsAddedOrRemovedInvalidatingBuildFiles int64 `json:"paths_added_or_removed_invalidating_build_files"`
	CacheInvalidatedByOverflow                int64 `json:"cache_invalidated_by_overflow"`
}

// CacheStats reports how many entries a cell's sub-cache currently holds.
type CacheStats struct {
	Cell      CellName `json:"cell"`
	Manifests int      `json:"manifests"`
	Packages  int      `json:"packages"`
	Nodes     int      `json:"nodes"`
}

// ValidationToken is a stamp of the cache generation; every invalidation advances it.
type ValidationToken uint64
