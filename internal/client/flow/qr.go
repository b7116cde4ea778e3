package flow

import (
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// QRConfig holds the static fields of the challenge transaction.
type QRConfig struct {
	RecipientAddress string
	ContractID       string
	TokenID          string
}

// isoMillis matches the browser's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z"

// BuildPayload renders the transaction the wallet app is asked to perform.
// The nonce travels in transactionDetails as "nonce_<nonce>"; nothing is
// signed or checksummed locally.
func BuildPayload(cfg QRConfig, nonce string, at time.Time) string {
	fields := []string{
		"amount=0",
		"recipientAddress=" + cfg.RecipientAddress,
		"senderAddress=customer_",
		"timestamp=" + at.UTC().Format(isoMillis),
		"tokenId=" + cfg.TokenID,
		"transactionCost=0",
		fmt.Sprintf("transactionDetails=smart_contract_auth_%s,nonce_%s", cfg.ContractID, nonce),
		"transactionId=transaction_",
	}
	return strings.Join(fields, ",")
}

// RenderQR draws payload as terminal block art.
func RenderQR(payload string) (string, error) {
	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return q.ToSmallString(false), nil
}

// WriteQRPNG saves payload as a PNG image of size×size pixels.
func WriteQRPNG(payload, path string, size int) error {
	if err := qrcode.WriteFile(payload, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("write qr png: %w", err)
	}
	return nil
}
