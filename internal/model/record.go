package model

import "time"

// PlayerRecord is the durable progression for a display name. It outlives any
// single connection: reconnecting under the same name resumes this record.
type PlayerRecord struct {
	Name            string    `json:"name"`
	Score           int       `json:"score"`
	RewardedTargets []string  `json:"rewardedTargets"`
	SocialPlatform  string    `json:"socialPlatform,omitempty"`
	SocialHandle    string    `json:"socialHandle,omitempty"`
	LastActive      time.Time `json:"lastActive"`
}

// HasRewarded reports whether targetID has already been rewarded for this record
func (r *PlayerRecord) HasRewarded(targetID string) bool {
	for _, t := range r.RewardedTargets {
		if t == targetID {
			return true
		}
	}
	return false
}

// ChatMessage is one entry of the append-only chat log
type ChatMessage struct {
	SenderID   ConnID    `json:"id,omitempty"`
	SenderName string    `json:"name"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
