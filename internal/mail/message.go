package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Inline content IDs referenced by the HTML body. Stable so the template
// and the embed calls can never drift apart.
const (
	CIDQRCode = "qr.png"
	CIDTicket = "ticket.png"
)

// InlineImage is an attachment embedded by content ID.
type InlineImage struct {
	Filename string
	Data     []byte
}

// Message is the transport-independent email bundle.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Inline  []InlineImage
}

// TicketEmailData feeds the ticket email template.
type TicketEmailData struct {
	EventName    string
	Name         string
	Code         string
	StatusLabel  string
	RegisteredAt time.Time
	HasTemplate  bool
	DownloadURL  string
}

var ticketTemplate = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1a1a1a;">
    <h2>{{.EventName}} E-Ticket</h2>
    <p>Hi {{.Name}},</p>
    <p>Your registration is confirmed ({{.StatusLabel}}). Show the QR code below at the door.</p>
    <p><img src="cid:qr.png" alt="QR code" width="260" height="260"/></p>
    {{if .HasTemplate}}<p>A printable ticket is attached:</p>
    <p><img src="cid:ticket.png" alt="Ticket" width="450"/></p>{{end}}
    {{if .DownloadURL}}<p><a href="{{.DownloadURL}}">Download your ticket</a></p>{{end}}
    <p>Registration code: <b>{{.Code}}</b><br/>
    Registered: {{.RegisteredAt.Format "2 Jan 2006"}}</p>
  </body>
</html>`))

// BuildTicketEmail assembles the ticket message. templatePNG may be nil
// when decoration failed; the email then carries the plain QR alone.
func BuildTicketEmail(data TicketEmailData, to, toName string, qrPNG, templatePNG []byte) (*Message, error) {
	data.HasTemplate = templatePNG != nil

	var body bytes.Buffer
	if err := ticketTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render ticket email: %w", err)
	}

	msg := &Message{
		To:      to,
		ToName:  toName,
		Subject: fmt.Sprintf("%s E-Ticket - %s", data.EventName, data.Code),
		HTML:    body.String(),
		Inline:  []InlineImage{{Filename: CIDQRCode, Data: qrPNG}},
	}
	if templatePNG != nil {
		msg.Inline = append(msg.Inline, InlineImage{Filename: CIDTicket, Data: templatePNG})
	}
	return msg, nil
}
