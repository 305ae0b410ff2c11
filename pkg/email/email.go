package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	AppName      string
}

// Attachment is a file sent along with a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReceiptEmail describes a receipt delivery to a donor
type ReceiptEmail struct {
	To            string
	DonorName     string
	ReceiptNumber string
	Amount        string
	Recipient     string
	Attachment    Attachment
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   sendFunc
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	if config.AppName == "" {
		config.AppName = "FoodBridge"
	}
	return &EmailService{config: config, send: smtp.SendMail}
}

// Enabled reports whether an SMTP host is configured
func (s *EmailService) Enabled() bool {
	return s.config.SMTPHost != ""
}

// SendReceiptEmail sends the receipt PDF to the donor
func (s *EmailService) SendReceiptEmail(msg *ReceiptEmail) error {
	htmlContent, err := s.renderReceiptEmail(msg)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Your donation receipt %s - %s", msg.ReceiptNumber, s.config.AppName)
	message, err := s.buildMixedEmail(msg.To, subject, htmlContent, msg.Attachment)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	return s.sendEmail(msg.To, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildMixedEmail builds a multipart/mixed message with an HTML body and one attachment
func (s *EmailService) buildMixedEmail(to, subject, htmlBody string, att Attachment) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: multipart/mixed; boundary=%q\r\n"+
			"\r\n",
		mime.QEncoding.Encode("utf-8", s.config.FromName),
		s.config.FromEmail,
		to,
		mime.QEncoding.Encode("utf-8", subject),
		mw.Boundary(),
	)

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="UTF-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}

	if att.Filename != "" {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attPart, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", contentType, att.Filename)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
		})
		if err != nil {
			return nil, err
		}
		if _, err := attPart.Write(wrapBase64(att.Data)); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	return append([]byte(headers), body.Bytes()...), nil
}

// wrapBase64 encodes data with 76 character lines (RFC 2045)
func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(encoded) > 76 {
		out.WriteString(encoded[:76])
		out.WriteString("\r\n")
		encoded = encoded[76:]
	}
	out.WriteString(encoded)
	return out.Bytes()
}

// renderReceiptEmail renders the receipt email template
func (s *EmailService) renderReceiptEmail(msg *ReceiptEmail) (string, error) {
	tmpl, err := template.New("receipt").Parse(receiptTemplate)
	if err != nil {
		return "", err
	}

	data := struct {
		DonorName     string
		ReceiptNumber string
		Amount        string
		Recipient     string
		AppName       string
	}{
		DonorName:     msg.DonorName,
		ReceiptNumber: msg.ReceiptNumber,
		Amount:        msg.Amount,
		Recipient:     msg.Recipient,
		AppName:       s.config.AppName,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// receiptTemplate is the HTML template for receipt emails
const receiptTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Donation Receipt</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7f4;">
    <table role="presentation" style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px;">
        <tr>
            <td style="background-color: #14532d; padding: 32px; text-align: center;">
                <h1 style="color: #ffffff; margin: 0; font-size: 26px;">{{.AppName}}</h1>
            </td>
        </tr>
        <tr>
            <td style="padding: 32px; color: #374151; font-size: 16px; line-height: 1.6;">
                <p>Dear {{.DonorName}},</p>
                <p>Thank you for donating surplus food to <strong>{{.Recipient}}</strong>.</p>
                <p>Your receipt <strong>{{.ReceiptNumber}}</strong> for a donation valued at <strong>{{.Amount}}</strong> is attached to this email. Please keep it with your tax records.</p>
                <p style="color: #6b7280; font-size: 14px;">This receipt is issued once per donation. Please do not request duplicates for the same pickup.</p>
            </td>
        </tr>
        <tr>
            <td style="background-color: #f8fafc; padding: 24px; text-align: center; color: #9ca3af; font-size: 12px;">
                This email was sent by {{.AppName}}
            </td>
        </tr>
    </table>
</body>
</html>
`
