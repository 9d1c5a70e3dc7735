package mailing

import (
	"Smart-Picking/internal/utils"
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/gomail.v2"
)

type MailConfig struct {
	SMTPHost       string
	SMTPPort       string
	SMTPSender     string
	SMTPEmail      string
	SMTPPassword   string
	SupervisorMail string
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		SMTPHost:       utils.GetConfig("SMTP_HOST"),
		SMTPPort:       utils.GetConfig("SMTP_PORT"),
		SMTPSender:     utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:      utils.GetConfig("SMTP_AUTH_EMAIL"),
		SMTPPassword:   utils.GetConfig("SMTP_AUTH_PASSWORD"),
		SupervisorMail: utils.GetConfig("SUPERVISOR_EMAIL"),
	}
}

func (c MailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.SupervisorMail != ""
}

func SendMail(cfg MailConfig, toEmail string, subject string, body string) error {
	mailer := gomail.NewMessage()
	mailer.SetAddressHeader("From", cfg.SMTPEmail, cfg.SMTPSender)
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		return err
	}
	dialer := gomail.NewDialer(
		cfg.SMTPHost,
		port,
		cfg.SMTPEmail,
		cfg.SMTPPassword,
	)

	return dialer.DialAndSend(mailer)
}

// LedgerAlert describes photos that were stored without their ledger rows.
type LedgerAlert struct {
	Order      string
	Operator   string
	FolderPath string
	Assets     []string
	Rows       int
	Cause      error
}

// SupervisorAlerter mails the supervisor when a commit leaves photos without ledger rows.
type SupervisorAlerter struct {
	cfg MailConfig
}

func NewSupervisorAlerter() *SupervisorAlerter {
	return &SupervisorAlerter{cfg: LoadMailConfig()}
}

func (a *SupervisorAlerter) LedgerAppendFailed(_ context.Context, alert LedgerAlert) {
	if !a.cfg.Enabled() {
		return
	}
	subject := fmt.Sprintf("[Picking] ledger append failed for order %s", alert.Order)
	if err := SendMail(a.cfg, a.cfg.SupervisorMail, subject, renderLedgerAlert(alert)); err != nil {
		log.Errorf("failed to send ledger alert for order %s: %v", alert.Order, err)
	}
}

func renderLedgerAlert(alert LedgerAlert) string {
	var b strings.Builder
	b.WriteString("<p>Photos were uploaded but the ledger rows could not be written.</p><ul>")
	fmt.Fprintf(&b, "<li>Order: %s</li>", html.EscapeString(alert.Order))
	fmt.Fprintf(&b, "<li>Operator: %s</li>", html.EscapeString(alert.Operator))
	fmt.Fprintf(&b, "<li>Folder: %s</li>", html.EscapeString(alert.FolderPath))
	fmt.Fprintf(&b, "<li>Pending rows: %d</li>", alert.Rows)
	if alert.Cause != nil {
		fmt.Fprintf(&b, "<li>Error: %s</li>", html.EscapeString(alert.Cause.Error()))
	}
	b.WriteString("</ul><p>Assets:</p><ul>")
	for _, asset := range alert.Assets {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(asset))
	}
	b.WriteString("</ul>")
	return b.String()
}
