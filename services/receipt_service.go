package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	config "github.com/dmutua84/nyumba_stays/configs"
	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// GenerateBookingReceipt renders a stay receipt PDF for a completed booking
// and stores the Cloudinary URL on the booking. Runs in the background;
// failures are logged only.
func GenerateBookingReceipt(booking models.Booking) {
	if booking.Status != models.BookingStatusCompleted {
		return
	}

	if booking.ReceiptURL != nil && *booking.ReceiptURL != "" {
		return
	}

	htmlData, err := generateReceiptHTML(&booking)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt HTML for booking %s: %v", booking.ID, err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt PDF for booking %s: %v", booking.ID, err)
		return
	}

	uploadURL, err := uploadReceiptToCloudinary(pdfBytes, booking.Reference)
	if err != nil {
		log.Printf("🔥 Failed to upload receipt for booking %s: %v", booking.ID, err)
		return
	}

	err = database.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).
		Update("receipt_url", uploadURL).Error
	if err != nil {
		log.Printf("🔥 Failed to save receipt URL for booking %s: %v", booking.ID, err)
		return
	}

	log.Printf("✅ Generated receipt for booking %s.", booking.Reference)
}

func generateReceiptHTML(booking *models.Booking) (string, error) {
	tmpl, err := template.ParseFiles("templates/receipt.html")
	if err != nil {
		return "", err
	}

	nights := int(booking.CheckOutDate.Sub(booking.CheckInDate).Hours() / 24)

	data := struct {
		GuestName     string
		PropertyTitle string
		Reference     string
		CheckIn       string
		CheckOut      string
		Nights        int
		Total         string
		Currency      string
		IssuedOn      string
	}{
		GuestName:     booking.Guest.FullName,
		PropertyTitle: booking.Property.Title,
		Reference:     booking.Reference,
		CheckIn:       booking.CheckInDate.Format("January 2, 2006"),
		CheckOut:      booking.CheckOutDate.Format("January 2, 2006"),
		Nights:        nights,
		Total:         booking.TotalPrice.StringFixed(2),
		Currency:      booking.Currency,
		IssuedOn:      time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReceiptToCloudinary(fileBytes []byte, reference string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s_%s", reference, uuid.New().String()),
		Folder:       "nyumba_stays_receipts",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
