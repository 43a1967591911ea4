package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/intervoice/backend/internal/api/handlers"
	"github.com/intervoice/backend/internal/api/middleware"
	"github.com/intervoice/backend/internal/services"
)

type Deps struct {
	Logger *logrus.Logger

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	Users services.UserService

	Interviews *handlers.InterviewHandler
	Progress   *handlers.ProgressHandler
	Admin      *handlers.AdminHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWTSecret, d.JWTIssuer, d.JWTAudience))
	auth.Use(middleware.UserSync(d.Users))
	{
		auth.POST("/interview", d.Interviews.Create)
		auth.GET("/interviews", d.Interviews.List)

		auth.POST("/interview/:session_id/start", d.Interviews.Start)
		auth.POST("/interview/:session_id/regenerate", d.Interviews.Regenerate)
		auth.GET("/interview/:session_id", d.Interviews.Get)
		auth.POST("/interview/:session_id/answer", d.Interviews.Answer)
		auth.POST("/interview/:session_id/complete", d.Interviews.Complete)

		auth.GET("/interview/:session_id/audio", d.Interviews.ListAudio)
		auth.GET("/interview/:session_id/audio/:filename", d.Interviews.ServeAudio)

		auth.GET("/ws/interview/:session_id/progress", d.Progress.Stream)

		admin := auth.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/purge", d.Admin.Purge)
		}
	}
}
