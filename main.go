package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/servly/payment-service/config"
	"github.com/servly/payment-service/internal/gateway"
	"github.com/servly/payment-service/internal/handler"
	"github.com/servly/payment-service/internal/middleware"
	"github.com/servly/payment-service/internal/repository"
	"github.com/servly/payment-service/internal/service"
	"github.com/servly/payment-service/pkg/database"
	"github.com/servly/payment-service/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	ledger := repository.NewLedgerRepository(db)
	gw := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey)

	paymentSvc := service.NewPaymentService(gw, ledger, service.Config{
		Currency:     cfg.Currency,
		FeeRate:      cfg.PlatformFeeRate,
		AcceptPolicy: cfg.AcceptChargePolicy,
	})

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "payment-service"})
	})

	handler.NewPaymentHandler(paymentSvc, ledger, publisher).RegisterRoutes(e)

	log.Printf("Payment Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
