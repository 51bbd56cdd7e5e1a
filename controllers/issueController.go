package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"issuex/config"
	"issuex/geo"
	"issuex/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var issueCollection *mongo.Collection = config.GetCollection("issues")
var voteCollection *mongo.Collection = config.GetCollection("votes")
var userCollection *mongo.Collection = config.GetCollection("users")

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"success": false, "message": msg})
}

func ok(c *gin.Context, code int, data interface{}, msg string) {
	c.JSON(code, gin.H{"success": true, "data": data, "message": msg})
}

// annotateVotes fills the per-user vote and follow fields on an issue.
// Aggregate counts are denormalized on the issue document itself and need
// no extra query.
func annotateVotes(ctx context.Context, issue *models.Issue, userID *primitive.ObjectID) {
	if userID == nil {
		return
	}
	var vote models.Vote
	err := voteCollection.FindOne(ctx, bson.M{"issue": issue.ID, "user": *userID}).Decode(&vote)
	if err == nil {
		issue.UserVote = string(vote.Type)
	}
	count, err := followCollection.CountDocuments(ctx, bson.M{"issue": issue.ID, "user": *userID})
	if err == nil && count > 0 {
		issue.UserFollowing = true
	}
}

func currentUserID(c *gin.Context) *primitive.ObjectID {
	if userIDStr, exists := c.Get("user_id"); exists {
		if objID, err := primitive.ObjectIDFromHex(userIDStr.(string)); err == nil {
			return &objID
		}
	}
	return nil
}

// CreateIssue handles the creation of a new issue. The request is
// multipart/form-data: text fields plus a location JSON string and any
// number of image uploads.
func CreateIssue(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	createdByID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("description")
	category := c.PostForm("category")
	severity := c.DefaultPostForm("severity", string(models.Medium))
	anonymous := c.DefaultPostForm("anonymous", "false") == "true"
	locationJSON := c.PostForm("location")

	if title == "" || len(title) > 200 {
		fail(c, http.StatusBadRequest, "Title is required and must be at most 200 characters")
		return
	}
	if description == "" || len(description) > 1000 {
		fail(c, http.StatusBadRequest, "Description is required and must be at most 1000 characters")
		return
	}
	if !models.ValidCategory(category) {
		fail(c, http.StatusBadRequest, "Invalid category")
		return
	}
	if !models.ValidSeverity(severity) {
		fail(c, http.StatusBadRequest, "Invalid severity")
		return
	}

	var location models.Location
	if err := json.Unmarshal([]byte(locationJSON), &location); err != nil {
		fail(c, http.StatusBadRequest, "Invalid location payload")
		return
	}
	if !location.Valid() {
		fail(c, http.StatusBadRequest, "Location coordinates out of range")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reporter := models.Reporter{Anonymous: anonymous}
	if !anonymous {
		var creator models.User
		if err := userCollection.FindOne(ctx, bson.M{"_id": createdByID}).Decode(&creator); err == nil {
			reporter.Name = creator.Name
			reporter.Email = creator.Email
		}
	}

	// Store uploaded images under the uploads dir; URLs are served statically.
	var images []string
	if form, err := c.MultipartForm(); err == nil {
		uploadDir := os.Getenv("UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = "uploads"
		}
		for _, file := range form.File["images"] {
			name := uuid.NewString() + filepath.Ext(file.Filename)
			dst := filepath.Join(uploadDir, name)
			if err := c.SaveUploadedFile(file, dst); err != nil {
				fail(c, http.StatusInternalServerError, "Failed to store image")
				return
			}
			images = append(images, "/uploads/"+name)
		}
	}

	now := time.Now()
	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		Category:    models.IssueCategory(category),
		Status:      models.Reported,
		Severity:    models.IssueSeverity(severity),
		Location:    location,
		Images:      images,
		Reporter:    reporter,
		CreatedBy:   createdByID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := issueCollection.InsertOne(ctx, issue); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create issue")
		return
	}

	ok(c, http.StatusCreated, issue, "Issue created")
}

// GetAllIssues handles retrieving issues with spatial, status and category
// filtering plus pagination. When lat/lng/radius are supplied, candidate
// documents are narrowed by a bounding box in the query and then filtered
// precisely with the haversine distance.
func GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	category := c.Query("category")
	status := c.Query("status")
	search := c.Query("search")
	sortParam := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{}
	if category != "" && category != "all" {
		if !models.ValidCategory(category) {
			fail(c, http.StatusBadRequest, "Invalid category")
			return
		}
		filter["category"] = category
	}
	if status != "" && status != "all" {
		if !models.ValidStatus(status) {
			fail(c, http.StatusBadRequest, "Invalid status")
			return
		}
		filter["status"] = status
	}
	if search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": search, "$options": "i"}},
			{"description": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	var center *models.Location
	radiusKm := 0.0
	if latStr, lngStr := c.Query("lat"), c.Query("lng"); latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		radius, errRad := strconv.ParseFloat(c.DefaultQuery("radius", "10"), 64)
		if errLat != nil || errLng != nil || errRad != nil {
			fail(c, http.StatusBadRequest, "Invalid spatial parameters")
			return
		}
		loc := models.Location{Lat: lat, Lng: lng}
		if !loc.Valid() || radius <= 0 {
			fail(c, http.StatusBadRequest, "Invalid spatial parameters")
			return
		}
		center = &loc
		radiusKm = radius

		box := geo.BoundingBox(loc, radius)
		filter["location.lat"] = bson.M{"$gte": box.MinLat, "$lte": box.MaxLat}
		filter["location.lng"] = bson.M{"$gte": box.MinLng, "$lte": box.MaxLng}
	}

	var sortOptions bson.D
	switch sortParam {
	case "oldest":
		sortOptions = bson.D{{Key: "createdAt", Value: 1}}
	case "votes":
		sortOptions = bson.D{{Key: "voteCount", Value: -1}}
	case "newest":
		fallthrough
	default:
		sortOptions = bson.D{{Key: "createdAt", Value: -1}}
	}

	findOptions := options.Find().SetSort(sortOptions)

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to retrieve issues")
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to decode issues")
		return
	}

	// Precise radius membership; the bounding box above over-approximates.
	if center != nil {
		filtered := issues[:0]
		for _, issue := range issues {
			if geo.IsWithinRadius(&issue.Location, center, radiusKm) {
				filtered = append(filtered, issue)
			}
		}
		issues = filtered
	}

	totalCount := len(issues)
	totalPages := (totalCount + limit - 1) / limit

	skip := (page - 1) * limit
	if skip > totalCount {
		skip = totalCount
	}
	end := skip + limit
	if end > totalCount {
		end = totalCount
	}
	pageIssues := issues[skip:end]

	userID := currentUserID(c)
	for i := range pageIssues {
		annotateVotes(ctx, &pageIssues[i], userID)
	}

	ok(c, http.StatusOK, gin.H{
		"issues":      pageIssues,
		"totalIssues": totalCount,
		"totalPages":  totalPages,
		"currentPage": page,
	}, "")
}

// GetIssue retrieves an issue by its ID with vote information
func GetIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			fail(c, http.StatusNotFound, "Issue not found")
		} else {
			fail(c, http.StatusInternalServerError, "Failed to retrieve issue")
		}
		return
	}

	annotateVotes(ctx, &issue, currentUserID(c))
	ok(c, http.StatusOK, issue, "")
}

// GetIssuesByUser retrieves all issues created by the authenticated user
func GetIssuesByUser(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := issueCollection.Find(ctx, bson.M{"createdBy": userObjID})
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to retrieve issues")
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to decode issues")
		return
	}

	for i := range issues {
		annotateVotes(ctx, &issues[i], &userObjID)
	}

	ok(c, http.StatusOK, issues, "")
}

// UpdateIssue updates issue details. The reporter may edit their own issue;
// staff roles may additionally move the status forward. Status moves follow
// the transition rule in models.CanTransition.
func UpdateIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var input struct {
		Title       *string          `json:"title,omitempty"`
		Description *string          `json:"description,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Severity    *string          `json:"severity,omitempty"`
		Status      *string          `json:"status,omitempty"`
		Location    *models.Location `json:"location,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			fail(c, http.StatusNotFound, "Issue not found")
		} else {
			fail(c, http.StatusInternalServerError, "Failed to retrieve issue")
		}
		return
	}

	roleVal, _ := c.Get("role")
	role, _ := roleVal.(string)
	isStaff := models.UserRole(role).Staff()
	isOwner := issue.CreatedBy == userObjID

	if !isOwner && !isStaff {
		fail(c, http.StatusForbidden, "You are not authorized to update this issue")
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Title != nil {
		update["title"] = *input.Title
	}
	if input.Description != nil {
		update["description"] = *input.Description
	}
	if input.Category != nil {
		if !models.ValidCategory(*input.Category) {
			fail(c, http.StatusBadRequest, "Invalid category")
			return
		}
		update["category"] = *input.Category
	}
	if input.Severity != nil {
		if !models.ValidSeverity(*input.Severity) {
			fail(c, http.StatusBadRequest, "Invalid severity")
			return
		}
		update["severity"] = *input.Severity
	}
	if input.Location != nil {
		if !input.Location.Valid() {
			fail(c, http.StatusBadRequest, "Location coordinates out of range")
			return
		}
		update["location"] = *input.Location
	}
	if input.Status != nil {
		if !models.ValidStatus(*input.Status) {
			fail(c, http.StatusBadRequest, "Invalid status")
			return
		}
		next := models.IssueStatus(*input.Status)
		if !models.CanTransition(issue.Status, next) {
			fail(c, http.StatusBadRequest, fmt.Sprintf("Cannot move issue from %s to %s", issue.Status, next))
			return
		}
		// The resolved -> reported rejection belongs to the reporter; all
		// other moves require a staff role.
		citizenRejection := issue.Status == models.Resolved && next == models.Reported
		if citizenRejection {
			if !isOwner {
				fail(c, http.StatusForbidden, "Only the reporter can reject a resolution")
				return
			}
		} else if next != issue.Status && !isStaff {
			fail(c, http.StatusForbidden, "Only staff can change issue status")
			return
		}
		update["status"] = *input.Status
	}

	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update issue")
		return
	}

	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to reload issue")
		return
	}
	annotateVotes(ctx, &issue, &userObjID)

	ok(c, http.StatusOK, issue, "Issue updated successfully")
}

// DeleteIssue allows the creator of an issue (or staff) to delete it
func DeleteIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			fail(c, http.StatusNotFound, "Issue not found")
		} else {
			fail(c, http.StatusInternalServerError, "Failed to retrieve issue")
		}
		return
	}

	roleVal, _ := c.Get("role")
	role, _ := roleVal.(string)
	if issue.CreatedBy != userObjID && !models.UserRole(role).Staff() {
		fail(c, http.StatusForbidden, "You are not authorized to delete this issue")
		return
	}

	if _, err := issueCollection.DeleteOne(ctx, bson.M{"_id": issueID}); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete issue")
		return
	}

	// Delete associated votes
	_, _ = voteCollection.DeleteMany(ctx, bson.M{"issue": issueID})

	ok(c, http.StatusOK, nil, "Issue deleted successfully")
}

// recountVotes recomputes the denormalized aggregates on an issue document
// and returns the updated issue.
func recountVotes(ctx context.Context, issueID primitive.ObjectID) (*models.Issue, error) {
	up, err := voteCollection.CountDocuments(ctx, bson.M{"issue": issueID, "type": models.Upvote})
	if err != nil {
		return nil, err
	}
	down, err := voteCollection.CountDocuments(ctx, bson.M{"issue": issueID, "type": models.Downvote})
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"upvotesCount":   up,
		"downvotesCount": down,
		"voteCount":      up - down,
		"updatedAt":      time.Now(),
	}
	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
		return nil, err
	}

	var issue models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// VoteOnIssue applies a vote to an issue. Repeating the same vote type
// removes the vote (toggle); voting the opposite type switches it. The
// response carries the authoritative aggregates.
func VoteOnIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid issue ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var input struct {
		VoteType string `json:"voteType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !models.ValidVoteType(input.VoteType) {
		fail(c, http.StatusBadRequest, "Invalid vote type")
		return
	}
	voteType := models.VoteType(input.VoteType)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			fail(c, http.StatusNotFound, "Issue not found")
		} else {
			fail(c, http.StatusInternalServerError, "Failed to retrieve issue")
		}
		return
	}

	var existing models.Vote
	err = voteCollection.FindOne(ctx, bson.M{"issue": issueID, "user": userObjID}).Decode(&existing)

	userVote := string(voteType)
	switch {
	case err == mongo.ErrNoDocuments:
		vote := models.Vote{
			ID:        primitive.NewObjectID(),
			Issue:     issueID,
			User:      userObjID,
			Type:      voteType,
			CreatedAt: time.Now(),
		}
		if _, err := voteCollection.InsertOne(ctx, vote); err != nil {
			fail(c, http.StatusInternalServerError, "Failed to cast vote")
			return
		}
	case err != nil:
		fail(c, http.StatusInternalServerError, "Failed to check existing votes")
		return
	case existing.Type == voteType:
		// Same vote again: toggle it off.
		if _, err := voteCollection.DeleteOne(ctx, bson.M{"_id": existing.ID}); err != nil {
			fail(c, http.StatusInternalServerError, "Failed to remove vote")
			return
		}
		userVote = ""
	default:
		// Switch vote direction.
		if _, err := voteCollection.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": bson.M{"type": voteType}}); err != nil {
			fail(c, http.StatusInternalServerError, "Failed to switch vote")
			return
		}
	}

	updated, err := recountVotes(ctx, issueID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to recount votes")
		return
	}
	updated.UserVote = userVote

	ok(c, http.StatusOK, updated, "Vote recorded")
}

// GetIssueAnalytics returns analytical data about issues
func GetIssueAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Get issues by category using aggregation
	categoryPipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$category",
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	categoryCursor, err := issueCollection.Aggregate(ctx, categoryPipeline)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to get category analytics")
		return
	}
	defer categoryCursor.Close(ctx)

	var issuesByCategory []bson.M
	if err := categoryCursor.All(ctx, &issuesByCategory); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to decode category analytics")
		return
	}

	// Get last 7 days data
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

		nextDate := date.AddDate(0, 0, 1)

		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"createdAt": bson.M{
				"$gte": date,
				"$lt":  nextDate,
			},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	// Top voted issues come straight off the denormalized aggregates.
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(50)

	cursor, err := issueCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to retrieve issues for vote analysis")
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to decode issues")
		return
	}

	type topIssue struct {
		ID       primitive.ObjectID `json:"id"`
		Title    string             `json:"title"`
		Category string             `json:"category"`
		Votes    int                `json:"votes"`
	}

	var topVoted []topIssue
	for _, issue := range issues {
		topVoted = append(topVoted, topIssue{
			ID:       issue.ID,
			Title:    issue.Title,
			Category: string(issue.Category),
			Votes:    issue.VoteCount,
		})
	}

	sort.Slice(topVoted, func(i, j int) bool {
		return topVoted[i].Votes > topVoted[j].Votes
	})
	if len(topVoted) > 5 {
		topVoted = topVoted[:5]
	}

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalIssues = 0
	}

	totalVotes, err := voteCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalVotes = 0
	}

	openIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []string{string(models.Reported), string(models.InProgress)}},
	})
	if err != nil {
		openIssues = 0
	}

	ok(c, http.StatusOK, gin.H{
		"issuesByCategory": issuesByCategory,
		"last7Days":        last7Days,
		"topVotedIssues":   topVoted,
		"totalIssues":      totalIssues,
		"totalVotes":       totalVotes,
		"openIssues":       openIssues,
	}, "")
}

// RecentIssues returns the most recent issues for the map overlay, limited
// to a small projection.
func RecentIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	limit := 19

	projection := bson.M{
		"_id":       1,
		"title":     1,
		"location":  1,
		"category":  1,
		"status":    1,
		"createdAt": 1,
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(projection)

	cursor, err := issueCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to retrieve recent issues")
		return
	}
	defer cursor.Close(ctx)

	type issuePin struct {
		ID        primitive.ObjectID `bson:"_id" json:"id"`
		Title     string             `bson:"title" json:"title"`
		Location  models.Location    `bson:"location" json:"location"`
		Category  string             `bson:"category" json:"category"`
		Status    string             `bson:"status" json:"status"`
		CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	}

	var pins []issuePin
	if err := cursor.All(ctx, &pins); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to decode recent issues")
		return
	}

	ok(c, http.StatusOK, pins, "")
}
