package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"zatix-checkout/models"
	"zatix-checkout/pkg/logger"
)

const logoFetchTimeout = 3 * time.Second

var defaultInstructions = []string{
	"Show this QR code at the event entrance.",
	"One scan per ticket; the code is void after use.",
	"Keep this ticket private. Anyone holding the code can use it.",
	"Bring a valid ID matching the holder name.",
}

type PDFOptions struct {
	// LogoURL is fetched with a 3s timeout; on failure the organizer
	// name is printed as a text logo instead.
	LogoURL string

	Instructions []string
	HTTPClient   *http.Client
	Logger       logger.Logger
}

func (o *PDFOptions) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return http.DefaultClient
}

func (o *PDFOptions) instructions() []string {
	if len(o.Instructions) > 0 {
		return o.Instructions
	}
	return defaultInstructions
}

func (o *PDFOptions) logger() logger.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.NewNop()
}

// PDFTicket composes a single-page ticket PDF: header with logo or text
// fallback, event details, ticket metadata, embedded QR, and usage
// instructions.
func PDFTicket(ctx context.Context, ticket models.CustomerTicket, event *models.Event, w io.Writer, opts PDFOptions) error {
	qrPNG, err := TicketQR(ticket)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header: image logo when it loads in time, organizer name otherwise.
	logo := fetchLogo(ctx, opts.httpClient(), opts.LogoURL)
	if kind := imageType(logo); kind != "" {
		pdf.RegisterImageOptionsReader("logo", gofpdf.ImageOptions{ImageType: kind}, bytes.NewReader(logo))
		pdf.ImageOptions("logo", 15, 12, 30, 0, false, gofpdf.ImageOptions{ImageType: kind}, 0, "")
		pdf.SetY(30)
	} else {
		opts.logger().Warn("logo unavailable, using text fallback", "url", opts.LogoURL)
		pdf.SetFont("Helvetica", "B", 18)
		name := "ZaTix"
		if event != nil && event.Organizer != nil {
			name = event.Organizer.Name
		}
		pdf.CellFormat(0, 12, name, "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 16)
	eventName := ticket.EventName
	if event != nil && event.Name != "" {
		eventName = event.Name
	}
	pdf.CellFormat(0, 10, eventName, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	if event != nil {
		pdf.CellFormat(0, 6, event.Location, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, event.StartDate.Format("Mon, 2 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, ticket.TicketName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Ticket code: "+ticket.TicketCode, "", 1, "L", false, 0, "")
	if ticket.HolderName != "" {
		pdf.CellFormat(0, 6, "Holder: "+ticket.HolderName, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 70, pdf.GetY(), 70, 70, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetY(pdf.GetY() + 76)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "How to use", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range opts.instructions() {
		pdf.MultiCell(0, 5, "- "+line, "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

// SaveTicket writes the ticket PDF into dir; when PDF composition
// fails it falls back to saving the raw QR image instead. The written
// path is returned.
func SaveTicket(ctx context.Context, ticket models.CustomerTicket, event *models.Event, dir string, opts PDFOptions) (string, error) {
	pdfPath := filepath.Join(dir, fmt.Sprintf("ticket-%s.pdf", ticket.TicketCode))

	var buf bytes.Buffer
	if err := PDFTicket(ctx, ticket, event, &buf, opts); err == nil {
		if writeErr := os.WriteFile(pdfPath, buf.Bytes(), 0o644); writeErr == nil {
			return pdfPath, nil
		}
	} else {
		opts.logger().Warn("pdf generation failed, saving raw qr", "ticket_code", ticket.TicketCode, "error", err)
	}

	qrPNG, err := TicketQR(ticket)
	if err != nil {
		return "", err
	}
	qrPath := filepath.Join(dir, fmt.Sprintf("ticket-%s.png", ticket.TicketCode))
	if err := os.WriteFile(qrPath, qrPNG, 0o644); err != nil {
		return "", fmt.Errorf("export: save qr image: %w", err)
	}
	return qrPath, nil
}

// imageType sniffs the formats gofpdf can embed.
func imageType(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte("\x89PNG")):
		return "PNG"
	case bytes.HasPrefix(raw, []byte{0xFF, 0xD8}):
		return "JPG"
	}
	return ""
}

// fetchLogo downloads the logo with a hard timeout. Any failure returns
// nil so the caller falls back to a text logo.
func fetchLogo(ctx context.Context, hc *http.Client, url string) []byte {
	if url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, logoFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return raw
}
