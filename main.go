package main

import (
	"log"

	"certtrack/config"
	"certtrack/database"
	authRoutes "certtrack/routers/authRoutes"
	certificationRoutes "certtrack/routers/certificationRoutes"
	requestRoutes "certtrack/routers/requestRoutes"
	userRoutes "certtrack/routers/userRoutes"
	"certtrack/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024, // headroom over the 10 MB file cap
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve uploaded certificate files
	app.Static("/uploads", "./"+config.AppConfig.UploadDir)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "OK", "message": "Server is running"})
	})

	authRoutes.SetupAuthRoutes(app)
	requestRoutes.SetupRequestRoutes(app)
	certificationRoutes.SetupCertificationRoutes(app)
	userRoutes.SetupUserRoutes(app)

	utils.StartExpiryScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
