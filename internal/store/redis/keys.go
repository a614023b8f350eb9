package redis

// KeyPrefix namespaces every slot this app writes in a shared redis DB.
const KeyPrefix = "jobfeed:"

// Key returns the redis key for a logical slot name.
// Example: "@JobApp:bookmarks_v1" -> "jobfeed:@JobApp:bookmarks_v1"
func Key(name string) string {
	return KeyPrefix + name
}

// SlotName strips KeyPrefix from a redis key. ok is false for foreign keys.
func SlotName(key string) (name string, ok bool) {
	if len(key) <= len(KeyPrefix) || key[:len(KeyPrefix)] != KeyPrefix {
		return "", false
	}
	return key[len(KeyPrefix):], true
}
