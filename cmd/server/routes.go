package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/identity"
	"github.com/liveclass/polling/internal/middleware"
	"github.com/liveclass/polling/internal/polls"
	"github.com/liveclass/polling/internal/realtime"
)

type routerDeps struct {
	hub         *realtime.Hub
	coord       realtime.Coordinator
	identity    *identity.Handler
	polls       *polls.Handler
	teachers    middleware.TeacherLookup
	corsOrigins []string
	logger      *zap.Logger
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(d.logger, "/health"))
	router.Use(middleware.CORS(d.corsOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": d.hub.ConnectionCount()})
	})

	router.POST("/teacher-login", d.identity.TeacherLogin)
	router.POST("/student-login", d.identity.StudentLogin)

	router.GET("/polls/:teacherUsername",
		middleware.Session(d.teachers, d.logger),
		middleware.RequireTeacher(),
		d.polls.History)

	router.GET("/ws", realtime.ServeWs(d.hub, d.coord, realtime.NewUpgrader(d.corsOrigins), d.logger))
	return router
}
