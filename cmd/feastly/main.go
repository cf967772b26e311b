package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/auth"
	"github.com/feastly-dev/feastly/internal/chat"
	"github.com/feastly-dev/feastly/internal/payments"
	"github.com/feastly-dev/feastly/internal/router"
	"github.com/feastly-dev/feastly/internal/services"
	"github.com/feastly-dev/feastly/internal/types"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file loaded: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		logrus.Fatalf("failed to initialize JWT secret: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logrus.Fatal("DATABASE_URL is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}

	serviceFee, err := types.ServiceFee()
	if err != nil {
		logrus.Fatal(err)
	}

	checkout := services.NewCheckout(db.DB, payments.NewHTTPGatewayFromEnv(), serviceFee)

	r := router.NewRouter(router.Deps{
		Hub:      chat.NewHub(),
		Checkout: checkout,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
		logrus.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		logrus.Fatalf("failed to start server: %v", err)
	}
}
