package export

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"zatix-checkout/models"
)

const qrSize = 256

// DecodeQRPayload turns the server's opaque QR payload (a data URL or
// raw base64) into PNG bytes.
func DecodeQRPayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("export: empty qr payload")
	}

	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("export: decode qr payload: %w", err)
	}
	return raw, nil
}

// TicketQR returns the PNG to render for a ticket: the server-issued
// image when it decodes, otherwise a locally generated QR of the ticket
// code text.
func TicketQR(ticket models.CustomerTicket) ([]byte, error) {
	if raw, err := DecodeQRPayload(ticket.QRCode); err == nil {
		return raw, nil
	}

	raw, err := qrcode.Encode(ticket.TicketCode, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("export: generate fallback qr: %w", err)
	}
	return raw, nil
}
