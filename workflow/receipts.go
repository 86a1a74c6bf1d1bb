package workflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
)

const (
	MaxReceiptSizeBytes int64 = 5 * 1024 * 1024
	receiptMaxWidth           = 1600
)

var receiptExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

var (
	receiptStorage   utils.Storage
	receiptStorageMu sync.Mutex
)

// SetReceiptStorage replaces where proof-of-payment files are written; nil
// falls back to STORAGE_PROVIDER.
func SetReceiptStorage(s utils.Storage) {
	receiptStorageMu.Lock()
	defer receiptStorageMu.Unlock()
	receiptStorage = s
}

func getReceiptStorage() (utils.Storage, error) {
	receiptStorageMu.Lock()
	defer receiptStorageMu.Unlock()
	if receiptStorage != nil {
		return receiptStorage, nil
	}
	s, err := utils.NewStorageFromEnv()
	if err != nil {
		return nil, err
	}
	receiptStorage = s
	return receiptStorage, nil
}

// AttachPaymentReceipt stores a proof-of-payment file against the payment.
// Photos are re-encoded as JPEG no wider than receiptMaxWidth.
func AttachPaymentReceipt(ctx context.Context, paymentId int, mimeType string, data []byte) (*models.Payment, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	ext, ok := receiptExtensions[mimeType]
	if !ok {
		return nil, utils.NewValidationError("receipt", "must be a JPEG, PNG or PDF file")
	}
	if len(data) == 0 {
		return nil, utils.NewValidationError("receipt", "file is empty")
	}
	if int64(len(data)) > MaxReceiptSizeBytes {
		return nil, utils.NewValidationError("receipt", fmt.Sprintf("file exceeds %d bytes", MaxReceiptSizeBytes))
	}
	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(mimeType, "image/") {
		data, err = normalizeReceiptImage(data)
		if err != nil {
			return nil, utils.NewValidationError("receipt", "image could not be decoded")
		}
		mimeType, ext = "image/jpeg", ".jpg"
	}

	store, err := getReceiptStorage()
	if err != nil {
		return nil, err
	}
	objectName := fmt.Sprintf("receipts/%d/%s%s", payment.ID, uuid.NewString(), ext)
	location, err := store.Save(ctx, objectName, mimeType, data)
	if err != nil {
		config.LogError(config.GetLogger(), "receipts.go", "AttachPaymentReceipt", "Save", objectName, err)
		return nil, err
	}
	if err := models.SetPaymentReceiptPath(ctx, payment.ID, location); err != nil {
		return nil, err
	}
	payment.ReceiptPath = location
	return payment, nil
}

func normalizeReceiptImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > receiptMaxWidth {
		img = imaging.Resize(img, receiptMaxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
