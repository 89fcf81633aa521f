package main

import (
	_ "github.com/calliq/insights-backend/docs"
	"github.com/calliq/insights-backend/internal/bootstrap"
)

// @title Call Insights API
// @version 1.0.0
// @description API server for call transcript analysis and agent performance metrics

// @BasePath /v1

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name x-api-key

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	bootstrap.Run()
}
