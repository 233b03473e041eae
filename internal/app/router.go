package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-gradebook/api/swagger" // registers the swagger document
	"github.com/noah-isme/sma-gradebook/internal/handler"
	"github.com/noah-isme/sma-gradebook/internal/middleware"
	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-gradebook/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-gradebook/pkg/middleware/requestid"
)

// Router builds the gateway routes.
func (a *App) Router() *gin.Engine {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))

	ops := handler.NewMetricsHandler(a.Metrics.Handler(), map[string]handler.ReadinessCheck{
		"sessions": a.PingSessions,
	})
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(a.Config.APIPrefix, "/")
	api := r.Group(prefix, middleware.WithResponseMeta())

	authHandler := handler.NewAuthHandler(a.Auth)
	studentHandler := handler.NewStudentHandler(a.Student)
	teacherHandler := handler.NewTeacherHandler(a.Teacher)
	filesHandler := handler.NewFilesHandler(a.Uploads)

	authn := middleware.JWT(a.Auth)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/logout", authn, authHandler.Logout)
	auth.GET("/me", authn, authHandler.Me)

	api.GET("/files/:token", filesHandler.Download)

	student := api.Group("/student", authn, middleware.RBAC(models.RoleStudent))
	student.GET("/assignments", studentHandler.Assignments)
	student.POST("/submissions/:id/submit", studentHandler.Submit)
	student.PUT("/submissions/:id/note", studentHandler.UpdateNote)
	student.POST("/uploads", filesHandler.Upload)
	student.GET("/export/pdf", studentHandler.ExportPDF)

	teacher := api.Group("/teacher", authn, middleware.RBAC(models.RoleTeacher))
	teacher.GET("/students", teacherHandler.Students)
	teacher.GET("/students/:id/submissions", teacherHandler.StudentSubmissions)
	teacher.GET("/students/:id/export/csv", teacherHandler.ExportCSV)
	teacher.GET("/assignments", teacherHandler.Assignments)
	teacher.POST("/assignments", teacherHandler.CreateAssignment)
	teacher.PUT("/submissions/:id/grade", teacherHandler.Grade)

	return r
}
