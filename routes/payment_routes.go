package routes

import (
	"github.com/dmutua84/nyumba_stays/handlers"
	"github.com/dmutua84/nyumba_stays/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments", middleware.Protected())
	payments.Post("/:paymentId/mpesa", handlers.InitiateMpesaPayment)
	payments.Post("/:paymentId/paypal", handlers.InitiatePayPalPayment)
	payments.Post("/paypal/:orderId/capture", handlers.CapturePayPalPayment)

	// Provider callback, authenticated by the provider side.
	api.Post("/payments/webhook", handlers.HandlePaymentWebhook)
}
