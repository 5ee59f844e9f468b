package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the Redis key holding the active session JTI for a user.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

// PassEventsChannel returns the Redis Pub/Sub channel for gate-pass change events.
func (r *CacheKeyStruct) PassEventsChannel() string {
	return "gatepass:events"
}

var CacheKey = NewCacheKeyStruct()
