package feed

import (
	"time"

	"issuex/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}

// MockIssues returns a fresh copy of the fixed sample dataset used in
// degraded mode. Each call returns independent values so local mutations
// never leak between synchronizers.
func MockIssues() []models.Issue {
	base := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	return []models.Issue{
		{
			ID:           mustID("66a1f0c2e4b0a1d2c3e4f501"),
			Title:        "Deep pothole near Trinity Circle",
			Description:  "Large pothole on the left lane, two-wheelers swerving into traffic.",
			Category:     models.Roads,
			Status:       models.Reported,
			Severity:     models.High,
			Location:     models.Location{Lat: 12.9716, Lng: 77.6000, Address: "MG Road, Bengaluru", Town: "Bengaluru"},
			Reporter:     models.Reporter{Name: "Asha Rao", Email: "asha@example.com"},
			VoteCount:    12,
			UpvotesCount: 13, DownvotesCount: 1,
			CreatedAt: base, UpdatedAt: base,
		},
		{
			ID:           mustID("66a1f0c2e4b0a1d2c3e4f502"),
			Title:        "Streetlight out for a week",
			Description:  "The lamp opposite the park gate has been dark since last Monday.",
			Category:     models.Lighting,
			Status:       models.InProgress,
			Severity:     models.Medium,
			Location:     models.Location{Lat: 12.9650, Lng: 77.5900, Address: "Cubbon Park West Gate, Bengaluru", Town: "Bengaluru"},
			Reporter:     models.Reporter{Anonymous: true},
			VoteCount:    5,
			UpvotesCount: 5,
			CreatedAt:    base.Add(-48 * time.Hour), UpdatedAt: base.Add(-12 * time.Hour),
		},
		{
			ID:           mustID("66a1f0c2e4b0a1d2c3e4f503"),
			Title:        "Water main leaking onto footpath",
			Description:  "Continuous leak, footpath flooded during mornings.",
			Category:     models.Water,
			Status:       models.Resolved,
			Severity:     models.High,
			Location:     models.Location{Lat: 12.9810, Lng: 77.6050, Address: "Ulsoor Lake Road, Bengaluru", Town: "Bengaluru"},
			Reporter:     models.Reporter{Name: "Vikram Shetty", Email: "vikram@example.com"},
			VoteCount:    8,
			UpvotesCount: 9, DownvotesCount: 1,
			CreatedAt: base.Add(-96 * time.Hour), UpdatedAt: base.Add(-24 * time.Hour),
		},
		{
			ID:           mustID("66a1f0c2e4b0a1d2c3e4f504"),
			Title:        "Overflowing garbage bins",
			Description:  "Bins have not been emptied in days, waste spreading on the street.",
			Category:     models.Cleanliness,
			Status:       models.Reported,
			Severity:     models.Medium,
			Location:     models.Location{Lat: 40.7150, Lng: -74.0080, Address: "Chambers St, New York", Town: "New York"},
			Reporter:     models.Reporter{Anonymous: true},
			VoteCount:    3,
			UpvotesCount: 4, DownvotesCount: 1,
			CreatedAt: base.Add(-24 * time.Hour), UpdatedAt: base.Add(-24 * time.Hour),
		},
		{
			ID:           mustID("66a1f0c2e4b0a1d2c3e4f505"),
			Title:        "Fallen tree blocking bike lane",
			Description:  "Storm debris still blocking the protected lane northbound.",
			Category:     models.Obstructions,
			Status:       models.Reported,
			Severity:     models.Critical,
			Location:     models.Location{Lat: 40.7090, Lng: -74.0110, Address: "West St, New York", Town: "New York"},
			Reporter:     models.Reporter{Name: "Dana Ortiz", Email: "dana@example.com"},
			VoteCount:    21,
			UpvotesCount: 22, DownvotesCount: 1,
			CreatedAt: base.Add(-6 * time.Hour), UpdatedAt: base.Add(-6 * time.Hour),
		},
		{
			ID:           mustID("66a1f0c2e4b0a1d2c3e4f506"),
			Title:        "Broken pedestrian signal",
			Description:  "Walk signal stuck on don't-walk at the school crossing.",
			Category:     models.Safety,
			Status:       models.InProgress,
			Severity:     models.High,
			Location:     models.Location{Lat: 40.7200, Lng: -74.0010, Address: "Canal St, New York", Town: "New York"},
			Reporter:     models.Reporter{Anonymous: true},
			VoteCount:    9,
			UpvotesCount: 9,
			CreatedAt:    base.Add(-72 * time.Hour), UpdatedAt: base.Add(-30 * time.Hour),
		},
	}
}
