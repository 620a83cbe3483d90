package router

import (
	"StudyVault/internal/handler"
	"StudyVault/model"
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/register", handler.Register)
		api.GET("/activate", handler.Activate)
		api.POST("/login", handler.Login)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware())

		material := auth.Group("/material")
		{
			material.POST("", handler.CreateMaterial)
			material.GET("", handler.ListMaterials)
			material.GET("/mine", handler.MyMaterials)
			material.GET("/accessed", handler.AccessedMaterials)
			material.POST("/upload",
				utils.RequireRoles(model.RoleTeacher, model.RoleAdmin), handler.UploadFile)
			material.GET("/:id", handler.GetMaterial)
			material.PUT("/:id", handler.UpdateMaterial)
			material.DELETE("/:id", handler.DeleteMaterial)
			material.POST("/:id/access", handler.RedeemCode)
			material.POST("/:id/download", handler.DownloadMaterial)
			material.GET("/:id/file", handler.StreamMaterial)
		}

		request := auth.Group("/access-request")
		{
			request.POST("/material/:materialId", handler.CreateAccessRequest)
			request.GET("/material/:materialId/status", handler.AccessStatus)
			request.GET("/mine", handler.MyAccessRequests)
			request.GET("/incoming", handler.IncomingAccessRequests)
			request.GET("/:id", handler.GetAccessRequest)
			request.POST("/:id/respond", handler.RespondAccessRequest)
			request.POST("/:id/cancel", handler.CancelAccessRequest)
		}

		bookmark := auth.Group("/bookmark")
		{
			bookmark.GET("", handler.ListBookmarks)
			bookmark.GET("/stats", handler.BookmarkStats)
			bookmark.POST("/:materialId", handler.AddBookmark)
			bookmark.DELETE("/:materialId", handler.RemoveBookmark)
			bookmark.GET("/:materialId/status", handler.BookmarkStatus)
		}

		notification := auth.Group("/notification")
		{
			notification.GET("", handler.ListNotifications)
			notification.GET("/unread-count", handler.UnreadNotificationCount)
			notification.POST("/:id/read", handler.MarkNotificationRead)
			notification.POST("/read-all", handler.MarkAllNotificationsRead)
		}

		auth.GET("/search/materials", handler.SearchMaterials)

		dashboard := auth.Group("/dashboard")
		{
			dashboard.GET("/admin",
				utils.RequireRoles(model.RoleAdmin), handler.AdminDashboard)
			dashboard.GET("/teacher",
				utils.RequireRoles(model.RoleTeacher, model.RoleAdmin), handler.TeacherDashboard)
			dashboard.GET("/student", handler.StudentDashboard)
		}

		admin := auth.Group("/admin")
		admin.Use(utils.RequireRoles(model.RoleAdmin))
		{
			admin.GET("/material/pending", handler.PendingMaterials)
			admin.POST("/material/:id/verify", handler.VerifyMaterial)
			admin.DELETE("/material/:id", handler.DeleteMaterial)
			admin.GET("/stats", handler.AdminDashboard)
			admin.POST("/access-request/sweep", handler.SweepAccessRequests)
		}
	}
	return r
}
