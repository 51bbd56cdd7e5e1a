package controllers

import (
	"context"
	"net/http"
	"time"

	"issuex/config"
	"issuex/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var followCollection *mongo.Collection = config.GetCollection("follows")
var flagCollection *mongo.Collection = config.GetCollection("flags")

func requireIssueAndUser(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid issue ID")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	userObjID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return issueID, userObjID, true
}

// FollowIssue toggles whether the authenticated user follows an issue.
func FollowIssue(c *gin.Context) {
	issueID, userObjID, okIDs := requireIssueAndUser(c)
	if !okIDs {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		if err == mongo.ErrNoDocuments {
			fail(c, http.StatusNotFound, "Issue not found")
		} else {
			fail(c, http.StatusInternalServerError, "Failed to retrieve issue")
		}
		return
	}

	following := true
	filter := bson.M{"issue": issueID, "user": userObjID}
	count, err := followCollection.CountDocuments(ctx, filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to check follow state")
		return
	}
	if count > 0 {
		if _, err := followCollection.DeleteOne(ctx, filter); err != nil {
			fail(c, http.StatusInternalServerError, "Failed to unfollow issue")
			return
		}
		following = false
	} else {
		follow := models.Follow{
			ID:        primitive.NewObjectID(),
			Issue:     issueID,
			User:      userObjID,
			CreatedAt: time.Now(),
		}
		if _, err := followCollection.InsertOne(ctx, follow); err != nil {
			fail(c, http.StatusInternalServerError, "Failed to follow issue")
			return
		}
	}

	followers, err := followCollection.CountDocuments(ctx, bson.M{"issue": issueID})
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to count followers")
		return
	}
	update := bson.M{"followersCount": followers, "updatedAt": time.Now()}
	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update issue")
		return
	}

	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to reload issue")
		return
	}
	issue.UserFollowing = following
	annotateVotes(ctx, &issue, &userObjID)

	ok(c, http.StatusOK, issue, "Follow state updated")
}

// FlagIssue records that the authenticated user flagged an issue. Flagging
// is idempotent per user; a second flag from the same user is a no-op.
func FlagIssue(c *gin.Context) {
	issueID, userObjID, okIDs := requireIssueAndUser(c)
	if !okIDs {
		return
	}

	var input struct {
		Reason string `json:"reason,omitempty" binding:"omitempty,max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		if err == mongo.ErrNoDocuments {
			fail(c, http.StatusNotFound, "Issue not found")
		} else {
			fail(c, http.StatusInternalServerError, "Failed to retrieve issue")
		}
		return
	}

	filter := bson.M{"issue": issueID, "user": userObjID}
	count, err := flagCollection.CountDocuments(ctx, filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to check flag state")
		return
	}
	if count == 0 {
		flag := models.Flag{
			ID:        primitive.NewObjectID(),
			Issue:     issueID,
			User:      userObjID,
			Reason:    input.Reason,
			CreatedAt: time.Now(),
		}
		if _, err := flagCollection.InsertOne(ctx, flag); err != nil {
			fail(c, http.StatusInternalServerError, "Failed to flag issue")
			return
		}
	}

	flags, err := flagCollection.CountDocuments(ctx, bson.M{"issue": issueID})
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to count flags")
		return
	}
	update := bson.M{"flagsCount": flags, "updatedAt": time.Now()}
	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update issue")
		return
	}

	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to reload issue")
		return
	}
	annotateVotes(ctx, &issue, &userObjID)

	ok(c, http.StatusOK, issue, "Issue flagged")
}
