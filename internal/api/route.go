package api

import (
	"Teamline/internal/api/middleware"
	"Teamline/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/register", group.UserHandler.Register)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/identity", group.UserHandler.GetIdentity)
				authGroup.PUT("/identity", group.UserHandler.SaveIdentity)
			}
		}

		roomGroup := apiGroup.Group("/room")
		roomGroup.Use(middleware.AuthMiddleware())
		{
			roomGroup.POST("", group.RoomHandler.CreateRoom)
			roomGroup.PUT("/:roomId/settings", group.RoomHandler.SaveSettings)
			roomGroup.POST("/list/publish", group.RoomHandler.PublishRoomList)
			roomGroup.DELETE("/moderator", group.RoomHandler.RemoveModerator)
		}

		chatGroup := apiGroup.Group("/chat")
		{
			chatGroup.GET("", group.WSHandler.Connect)
			authGroup := chatGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/send", group.ChatHandler.SendMessage)
				authGroup.POST("/read", group.ChatHandler.ReadMessages)
				authGroup.POST("/read/thread", group.ChatHandler.ReadThread)
				authGroup.GET("/receipts/:messageId", group.ChatHandler.GetReceipts)
			}
		}
	}

	return r
}
