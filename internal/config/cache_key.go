package config

import (
	"fmt"
	"time"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CorpusKey returns the cache key for the serialized question snapshot.
func (r *CacheKeyStruct) CorpusKey() string {
	return "questions:corpus"
}

// CorpusVersionKey returns the key holding the ingest run that produced the snapshot.
func (r *CacheKeyStruct) CorpusVersionKey() string {
	return "questions:corpus:version"
}

// APIKeyDailyUsageKey returns the counter key for an API key on a given UTC day.
func (r *CacheKeyStruct) APIKeyDailyUsageKey(keyID string, day time.Time) string {
	return fmt.Sprintf("apikey:%s:usage:%s", keyID, day.UTC().Format("2006-01-02"))
}

var CacheKey = NewCacheKeyStruct()
