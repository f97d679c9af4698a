package cache

import "github.com/coocood/freecache"

var _ Cache = (*freecache.Cache)(nil)

// Cache is a byte oriented key/value cache with per entry expiry.
type Cache interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte, expireSeconds int) error
	Del(key []byte) bool
	Clear()
}
