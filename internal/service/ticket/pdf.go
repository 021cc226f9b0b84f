package ticket

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/notify"
)

type Document struct {
	Filename string
	Content  []byte
}

func renderPDF(t *domain.Ticket, b *domain.Booking, sc *domain.Schedule) (*Document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Train Ticket "+t.TicketNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRAIN TICKET")
	pdf.Ln(14)

	qr, err := qrcode.Encode(t.TicketNumber, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 150, 20, 40, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Ticket number : %s", t.TicketNumber),
		fmt.Sprintf("Booking       : #%d", b.ID),
		fmt.Sprintf("Issued        : %s", t.IssuedAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("Train         : %s (%s)", sc.TrainName, sc.TrainNumber),
		fmt.Sprintf("Route         : %s", sc.RouteName),
		fmt.Sprintf("Date          : %s", sc.TravelDate.Format("2006-01-02")),
		fmt.Sprintf("Departure     : %s", sc.DepartureTime),
		fmt.Sprintf("Arrival       : %s", sc.ArrivalTime),
	}
	if b.Payment != nil {
		lines = append(lines, fmt.Sprintf("Paid          : %s by %s", notify.FormatAmount(b.Payment.Amount), b.Payment.Method))
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, "PASSENGERS", "", 1, "L", true, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for i, d := range b.Details {
		pdf.Cell(0, 7, fmt.Sprintf("%d. %s, %d, %s - seat %s (%s)", i+1, d.Passenger.Name, d.Passenger.Age, d.Passenger.Gender, d.SeatNumber, d.SeatClass))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Carry a valid photo identity card while travelling.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &Document{Filename: filename(t.TicketNumber), Content: buf.Bytes()}, nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func filename(number string) string {
	return "ticket_" + unsafeFilename.ReplaceAllString(number, "_") + ".pdf"
}
