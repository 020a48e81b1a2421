package redis

import "fmt"

// Key prefix for all scorekeeper data
const keyPrefix = "scorekeeper"

// kvKey returns the Redis key for a local storage key
func kvKey(key string) string {
	return fmt.Sprintf("%s:kv:%s", keyPrefix, key)
}
