package main

import "malinoise/internal/app"

// @title           Malinoise API
// @version         1.0
// @description     Business management platform: registration with email verification, login, password recovery.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
