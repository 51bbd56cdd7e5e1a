package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Roads        IssueCategory = "roads"
	Lighting     IssueCategory = "lighting"
	Water        IssueCategory = "water"
	Cleanliness  IssueCategory = "cleanliness"
	Safety       IssueCategory = "safety"
	Obstructions IssueCategory = "obstructions"
)

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch IssueCategory(s) {
	case Roads, Lighting, Water, Cleanliness, Safety, Obstructions:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Reported   IssueStatus = "reported"
	InProgress IssueStatus = "in_progress"
	Resolved   IssueStatus = "resolved"
	Closed     IssueStatus = "closed"
)

// ValidStatus reports whether s names a known status.
func ValidStatus(s string) bool {
	switch IssueStatus(s) {
	case Reported, InProgress, Resolved, Closed:
		return true
	}
	return false
}

// CanTransition reports whether a status move is allowed. Statuses only
// move forward, with one exception: a citizen rejecting a resolution sends
// the issue from resolved back to reported.
func CanTransition(from, to IssueStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case Reported:
		return to == InProgress || to == Resolved || to == Closed
	case InProgress:
		return to == Resolved || to == Closed
	case Resolved:
		return to == Closed || to == Reported
	case Closed:
		return false
	}
	return false
}

// IssueSeverity enum
type IssueSeverity string

const (
	Low      IssueSeverity = "low"
	Medium   IssueSeverity = "medium"
	High     IssueSeverity = "high"
	Critical IssueSeverity = "critical"
)

// ValidSeverity reports whether s names a known severity.
func ValidSeverity(s string) bool {
	switch IssueSeverity(s) {
	case Low, Medium, High, Critical:
		return true
	}
	return false
}

// Reporter identifies who filed an issue. Anonymous reports carry empty
// name/email with Anonymous set.
type Reporter struct {
	Name      string `bson:"name,omitempty" json:"name,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Anonymous bool   `bson:"anonymous" json:"anonymous"`
}

// Issue represents a civic issue reported by a user.
//
// VoteCount is a derived display value (upvotes minus downvotes); the
// server recomputes it on every vote mutation and it is authoritative
// over anything a client computed optimistically.
type Issue struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Category       IssueCategory      `bson:"category" json:"category"`
	Status         IssueStatus        `bson:"status" json:"status"`
	Severity       IssueSeverity      `bson:"severity" json:"severity"`
	Location       Location           `bson:"location" json:"location"`
	Images         []string           `bson:"images,omitempty" json:"images,omitempty"`
	Reporter       Reporter           `bson:"reporter" json:"reporter"`
	CreatedBy      primitive.ObjectID `bson:"createdBy,omitempty" json:"-"`
	VoteCount      int                `bson:"voteCount" json:"voteCount"`
	UpvotesCount   int                `bson:"upvotesCount" json:"upvotesCount"`
	DownvotesCount int                `bson:"downvotesCount" json:"downvotesCount"`
	FollowersCount int                `bson:"followersCount" json:"followersCount"`
	FlagsCount     int                `bson:"flagsCount" json:"flagsCount"`
	UserVote       string             `bson:"-" json:"userVote,omitempty"`
	UserFollowing  bool               `bson:"-" json:"userFollowing,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
