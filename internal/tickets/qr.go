package tickets

import (
	"encoding/json"

	"github.com/skip2/go-qrcode"
)

// QRPayload is what the door scanner reads back and posts to the check-in
// endpoint.
type QRPayload struct {
	EventID    string `json:"event_id"`
	TicketCode string `json:"ticket_code"`
}

// GenerateQR renders a ticket code as a 256x256 PNG for venue admission.
func GenerateQR(eventID, ticketCode string) ([]byte, error) {
	payload := QRPayload{
		EventID:    eventID,
		TicketCode: ticketCode,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, 256)
}
