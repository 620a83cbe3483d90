package main

import (
	"StudyVault/config"
	"StudyVault/internal/repo"
	"StudyVault/internal/storage"
	"StudyVault/router"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitMinio()

	router := router.InitRouter()

	router.Run(":8000")
}
