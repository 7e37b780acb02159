package main

import (
	_ "taskboard/docs"
	"taskboard/internal/config"
	"taskboard/internal/logging"
	"taskboard/internal/server"
)

// @title           Taskboard API
// @version         1.0
// @description     Workspaces, projects and a Kanban board of tasks.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	s, err := server.Init(cfg, logger)
	if err != nil {
		logger.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
