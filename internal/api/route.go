package api

import (
	"CommandCenter/internal/api/middleware"
	"CommandCenter/internal/pkg/consts"
	"CommandCenter/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// Metrics & TraceId & Logger & CORS
	r.Use(group.Metrics.Middleware())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	r.GET("/metrics", group.Metrics.Handler())

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		contentGroup := apiGroup.Group("/content")
		contentGroup.Use(middleware.AuthMiddleware())
		{
			contentGroup.POST("", group.ContentHandler.CreateDraft)
			contentGroup.GET("/:id", group.ContentHandler.GetContent)
			contentGroup.POST("/:id/review", group.ContentHandler.SubmitReview)
			contentGroup.POST("/:id/resubmit", group.ContentHandler.Resubmit)

			reviewGroup := contentGroup.Group("")
			reviewGroup.Use(middleware.CheckRoles(consts.RoleManager, consts.RoleAdmin))
			{
				reviewGroup.POST("/:id/approve", group.ContentHandler.Approve)
				reviewGroup.POST("/:id/request-changes", group.ContentHandler.RequestChanges)
				reviewGroup.POST("/:id/reject", group.ContentHandler.Reject)
			}
		}

		schedulerGroup := apiGroup.Group("/scheduler")
		schedulerGroup.Use(middleware.AuthMiddleware())
		{
			schedulerGroup.GET("/scheduled", group.ScheduleHandler.ListScheduled)
			schedulerGroup.POST("/:id/schedule", group.ScheduleHandler.Schedule)
			schedulerGroup.POST("/:id/publish", group.ScheduleHandler.PublishNow)
			schedulerGroup.DELETE("/:id", group.ScheduleHandler.Cancel)
		}

		notificationGroup := apiGroup.Group("/notifications")
		notificationGroup.Use(middleware.AuthMiddleware())
		{
			notificationGroup.GET("", group.NotificationHandler.GetNotificationList)
			notificationGroup.GET("/unread", group.NotificationHandler.GetUnreadCount)
			notificationGroup.POST("/read", group.NotificationHandler.MarkRead)
			notificationGroup.POST("/read-all", group.NotificationHandler.MarkAllRead)
		}
	}

	return r
}
