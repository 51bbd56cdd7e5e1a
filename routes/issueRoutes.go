package routes

import (
	"issuex/controllers"
	"issuex/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issues")
	{
		issue.GET("", middlewares.OptionalAuth(), controllers.GetAllIssues)
		issue.GET("/recent", controllers.RecentIssues)
		issue.GET("/analytics", middlewares.AuthMiddleware(), middlewares.RequireStaff(), controllers.GetIssueAnalytics)
		issue.GET("/mine", middlewares.AuthMiddleware(), controllers.GetIssuesByUser)
		issue.GET("/:id", middlewares.OptionalAuth(), controllers.GetIssue)
		issue.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(10), controllers.CreateIssue)
		issue.PUT("/:id", middlewares.AuthMiddleware(), controllers.UpdateIssue)
		issue.DELETE("/:id", middlewares.AuthMiddleware(), controllers.DeleteIssue)
		issue.POST("/:id/vote", middlewares.AuthMiddleware(), controllers.VoteOnIssue)
		issue.POST("/:id/follow", middlewares.AuthMiddleware(), controllers.FollowIssue)
		issue.POST("/:id/flag", middlewares.AuthMiddleware(), controllers.FlagIssue)
	}
}
