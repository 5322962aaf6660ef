package redis

import "fmt"

// Key prefix for all promenade data
const keyPrefix = "promenade"

// recordKey returns the Redis key for a PlayerRecord
func recordKey(name string) string {
	return fmt.Sprintf("%s:record:%s", keyPrefix, name)
}

// recordIndexKey returns the Redis key for the SET of known record keys
func recordIndexKey() string {
	return fmt.Sprintf("%s:idx:records", keyPrefix)
}

// chatLogKey returns the Redis key for the chat log list
func chatLogKey() string {
	return fmt.Sprintf("%s:chat", keyPrefix)
}
