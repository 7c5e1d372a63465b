package main

import (
	_ "github.com/eleven-am/live-gateway/docs"
	"github.com/eleven-am/live-gateway/internal/bootstrap"
)

// @title Live Gateway API
// @version 1.0.0
// @description Gateway for streaming multimodal model sessions

// @host api.live.example.com
// @BasePath /v1

// @securityDefinitions.apikey SessionAuth
// @in cookie
// @name live_session

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key

func main() {
	bootstrap.Run()
}
