package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"issuex/config"
	"issuex/models"
	authUtils "issuex/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterUser handles user registration
func RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := userCollection.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		log.Println("Error checking existing user:", err)
		fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if count > 0 {
		fail(c, http.StatusBadRequest, "User with this email already exists")
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     models.RoleUser,
		Preferences: models.Preferences{
			EmailNotifications: true,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := user.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	result, err := userCollection.InsertOne(ctx, user)
	if err != nil {
		log.Println("Error inserting user:", err)
		fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	user.Password = ""

	ok(c, http.StatusCreated, user, "Registered")
}

// LoginUser handles user login. The token travels both ways: as an
// HttpOnly cookie for browsers and in the response body for API clients
// that store it themselves.
func LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection.FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.ComparePassword(input.Password) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := authUtils.GenerateAndSetToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		log.Println("Error generating token:", err)
		fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")

	// For production, don't set domain to allow cross-origin cookies
	if environment == "production" {
		domain = ""
	}

	cookie := &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		MaxAge:   3600, // 1 hour
		Path:     "/",
		Domain:   domain,
		Secure:   environment == "production", // false for HTTP (dev), true for HTTPS (prod)
		HttpOnly: true,                        // still protect from JS access
		SameSite: http.SameSiteNoneMode,       // Required for cross-origin cookies in production
	}
	http.SetCookie(c.Writer, cookie)

	user.Password = ""
	ok(c, http.StatusOK, gin.H{"user": user, "token": token}, "Logged in")
}

// GetMe retrieves the authenticated user's confirmed profile. A 404-style
// miss is reported as 401 with a "user not found" message so clients can
// distinguish still-provisioning accounts from invalid sessions.
func GetMe(c *gin.Context) {
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

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = userCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		fail(c, http.StatusUnauthorized, "user not found")
		return
	}

	user.Password = ""
	ok(c, http.StatusOK, user, "")
}

// LogoutUser handles user logout by clearing the auth_token cookie
func LogoutUser(c *gin.Context) {
	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")

	c.SetCookie("auth_token", "", -1, "/", domain, environment == "production", true)
	ok(c, http.StatusOK, nil, "Logged out successfully")
}
