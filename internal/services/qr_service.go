package services

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/skip2/go-qrcode"
)

const contactCardSize = 256

// QRService renders unlocked contact details as a scannable vCard.
type QRService struct {
	contacts     *ContactService
	applications *ApplicationService
}

func NewQRService(contacts *ContactService, applications *ApplicationService) *QRService {
	return &QRService{
		contacts:     contacts,
		applications: applications,
	}
}

// ContactCard returns a PNG QR code of targetID's contact card. It is only
// available to accounts holding an active unlock for the target.
func (s *QRService) ContactCard(ctx context.Context, accountID, targetID string) ([]byte, error) {
	unlocked, err := s.contacts.Unlocked(ctx, accountID, targetID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, fmt.Errorf("contact %s: %w", targetID, ErrNotUnlocked)
	}

	app, err := s.applications.GetForTeacher(ctx, targetID)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(vCard(app.Profile.FullName, app.Profile.Phone, app.Profile.Email, app.Profile.City), qrcode.Medium)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(contactCardSize)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func vCard(name, phone, email, city string) string {
	esc := strings.NewReplacer(`\`, `\\`, ",", `\,`, ";", `\;`, "\n", `\n`)

	var b strings.Builder
	b.WriteString("BEGIN:VCARD\r\nVERSION:3.0\r\n")
	fmt.Fprintf(&b, "FN:%s\r\n", esc.Replace(name))
	if phone != "" {
		fmt.Fprintf(&b, "TEL;TYPE=CELL:%s\r\n", esc.Replace(phone))
	}
	if email != "" {
		fmt.Fprintf(&b, "EMAIL:%s\r\n", esc.Replace(email))
	}
	if city != "" {
		fmt.Fprintf(&b, "ADR;TYPE=HOME:;;;%s;;;\r\n", esc.Replace(city))
	}
	b.WriteString("END:VCARD\r\n")
	return b.String()
}
