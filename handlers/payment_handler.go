package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/notifications"
	"github.com/dmutua84/nyumba_stays/payments"
	"github.com/dmutua84/nyumba_stays/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// loadPayablePayment fetches a pending payment owned by the calling guest.
func loadPayablePayment(c *fiber.Ctx) (*models.Payment, error) {
	var payment models.Payment
	err := database.DB.Preload("Booking.Property.Host").Preload("Booking.Guest").
		First(&payment, "id = ?", c.Params("paymentId")).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Payment not found")
	}
	if payment.Booking.GuestID != currentUserID(c) {
		return nil, fiber.NewError(fiber.StatusForbidden, "This payment is not yours")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Payment is not awaiting collection")
	}
	return &payment, nil
}

type MpesaPaymentRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

func InitiateMpesaPayment(c *fiber.Ctx) error {
	payment, err := loadPayablePayment(c)
	if err != nil {
		fe := err.(*fiber.Error)
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	var req MpesaPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	amount := payment.Amount
	currency := payment.Currency
	if currency != "KES" {
		kesAmount, err := services.ConvertUSDToKES(amount)
		if err != nil {
			log.Printf("🔥 Currency conversion failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not perform currency conversion."})
		}
		amount = kesAmount
		currency = "KES"
	}

	stkResponse, err := payments.InitiateMpesaSTKPush(amount, req.PhoneNumber, payment.ID.String())
	if err != nil {
		log.Printf("🔥 CRITICAL: InitiateMpesaSTKPush failed: %v", err)
		if err.Error() == "invalid M-Pesa phone number format" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	payment.Provider = "mpesa"
	payment.MerchantRequestID = &stkResponse.Response.MerchantRequestID
	database.DB.Save(payment)

	return c.JSON(fiber.Map{
		"payment_id":       payment.ID,
		"charged_amount":   amount,
		"charged_currency": currency,
		"customer_message": stkResponse.Response.CustomerMessage,
	})
}

func InitiatePayPalPayment(c *fiber.Ctx) error {
	payment, err := loadPayablePayment(c)
	if err != nil {
		fe := err.(*fiber.Error)
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	order, err := payments.CreatePayPalOrder(payment.Amount, payment.Currency)
	if err != nil {
		log.Printf("🔥 Failed to create PayPal order for payment %s: %v", payment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	payment.Provider = "paypal"
	payment.ProviderOrderID = &order.ID
	database.DB.Save(payment)

	return c.JSON(fiber.Map{"payment_id": payment.ID, "order_id": order.ID})
}

func CapturePayPalPayment(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	var payment models.Payment
	err := database.DB.Preload("Booking.Property.Host").Preload("Booking.Guest").
		First(&payment, "provider_order_id = ?", orderID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}
	if payment.Booking.GuestID != currentUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This payment is not yours"})
	}
	if payment.Status == models.PaymentStatusCompleted {
		return c.JSON(fiber.Map{"message": "Payment already captured"})
	}

	order, err := payments.CapturePayPalOrder(orderID)
	if err != nil {
		log.Printf("🔥 Failed to capture PayPal order %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to capture payment"})
	}

	payment.Status = models.PaymentStatusCompleted
	payment.ProviderTxnID = &order.ID
	if err := database.DB.Save(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record payment"})
	}

	go notifyPaymentReceived(&payment)

	return c.JSON(fiber.Map{"message": "Payment captured successfully", "payment": payment})
}

type KcbWebhookPayload struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
			Reference string `json:"Reference"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// HandlePaymentWebhook processes the KCB STK callback. It settles the
// payment record only; confirming the booking stays a host decision.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	var payload KcbWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	stk := payload.Body.StkCallback

	var paymentRefID string
	parts := strings.Split(stk.Reference, "-")
	if len(parts) == 2 {
		paymentRefID = parts[1]
	} else {
		paymentRefID = stk.Reference
	}

	log.Printf("Received webhook for MerchantRequestID: %s, PaymentRefID: %s, ResultCode: %d",
		stk.MerchantRequestID, paymentRefID, stk.ResultCode)

	var payment models.Payment
	err := database.DB.Preload("Booking.Property.Host").Preload("Booking.Guest").
		First(&payment, "id = ?", paymentRefID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	if payment.Status == models.PaymentStatusCompleted {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook already processed"})
	}

	if stk.ResultCode != 0 {
		payment.Status = models.PaymentStatusFailed
		database.DB.Save(&payment)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Acknowledged failed payment"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var mpesaReceipt string
		for _, item := range stk.CallbackMetadata.Item {
			if item.Name == "MpesaReceiptNumber" {
				if val, ok := item.Value.(string); ok {
					mpesaReceipt = val
					break
				}
			}
		}

		payment.Status = models.PaymentStatusCompleted
		payment.ProviderTxnID = &mpesaReceipt
		payment.MerchantRequestID = &stk.MerchantRequestID
		return tx.Save(&payment).Error
	})
	if err != nil {
		log.Printf("🔥 CRITICAL: Error processing successful webhook for PaymentRefID %s: %v", paymentRefID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	go notifyPaymentReceived(&payment)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
}

func notifyPaymentReceived(payment *models.Payment) {
	booking := payment.Booking
	notifications.SendEmail(booking.Guest.FullName, booking.Guest.Email,
		"Payment Received",
		fmt.Sprintf("<h1>Asante!</h1><p>Your payment of %s %s for booking <b>%s</b> has been received.</p>",
			payment.Amount.StringFixed(2), payment.Currency, booking.Reference))
	notifications.SendEmail(booking.Property.Host.FullName, booking.Property.Host.Email,
		"Guest Payment Received",
		fmt.Sprintf("<h1>Payment In</h1><p>The guest has paid for booking <b>%s</b>. You can confirm the stay from your dashboard.</p>", booking.Reference))
}
