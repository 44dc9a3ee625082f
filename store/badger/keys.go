package badger

import (
	"fmt"
	"strings"
	"time"
)

// KeyBuilder builds storage keys for the archive
type KeyBuilder struct{}

// Result returns the key for a stored result
func (k *KeyBuilder) Result(taskID string) []byte {
	return []byte("result:" + taskID)
}

// Failure returns the key for a stored failure record
func (k *KeyBuilder) Failure(taskID string) []byte {
	return []byte("failure:" + taskID)
}

// ResultAt returns the time-index key for a result, sortable by completion
func (k *KeyBuilder) ResultAt(at time.Time, taskID string) []byte {
	ts := fmt.Sprintf("%019d", at.UnixNano())
	return []byte(fmt.Sprintf("resultat:%s:%s", ts, taskID))
}

// ResultAtPrefix returns the prefix for the result time index
func (k *KeyBuilder) ResultAtPrefix() []byte {
	return []byte("resultat:")
}

// FailureAt returns the time-index key for a failure record
func (k *KeyBuilder) FailureAt(at time.Time, taskID string) []byte {
	ts := fmt.Sprintf("%019d", at.UnixNano())
	return []byte(fmt.Sprintf("failureat:%s:%s", ts, taskID))
}

// FailureAtPrefix returns the prefix for the failure time index
func (k *KeyBuilder) FailureAtPrefix() []byte {
	return []byte("failureat:")
}

// ParseTaskID extracts the task ID from an index key
func (k *KeyBuilder) ParseTaskID(key []byte) string {
	parts := strings.Split(string(key), ":")
	return parts[len(parts)-1]
}

// ParseTimestamp extracts the timestamp from an index key
func (k *KeyBuilder) ParseTimestamp(key []byte) (time.Time, bool) {
	parts := strings.Split(string(key), ":")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	var nanos int64
	if _, err := fmt.Sscanf(parts[1], "%d", &nanos); err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}
