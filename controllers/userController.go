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
)

// UpdateProfile updates the authenticated user's name and profile picture.
func UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	objectID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var input struct {
		Name           *string `json:"name,omitempty" binding:"omitempty,max=50"`
		ProfilePicture *string `json:"profilePicture,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Name != nil {
		update["name"] = *input.Name
	}
	if input.ProfilePicture != nil {
		update["profilePicture"] = *input.ProfilePicture
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := userCollection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": update}); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to reload profile")
		return
	}
	user.Password = ""

	ok(c, http.StatusOK, user, "Profile updated")
}

// UpdatePreferences replaces the authenticated user's notification settings.
func UpdatePreferences(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	objectID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var input models.Preferences
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{"preferences": input, "updatedAt": time.Now()}
	if _, err := userCollection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": update}); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update preferences")
		return
	}

	ok(c, http.StatusOK, input, "Preferences updated")
}
