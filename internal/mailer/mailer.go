// Package mailer envia a chave da licença para o cliente depois do pagamento.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"text/template"
	"time"
)

// LicenseEmail são os dados do e-mail de entrega da licença.
type LicenseEmail struct {
	To         string
	LicenseKey string
	ExpiresAt  time.Time
}

var licenseTemplate = template.Must(template.New("license").Parse(
	`From: {{.From}}
To: {{.To}}
Subject: Sua licença Floating Notes Pro
MIME-Version: 1.0
Content-Type: text/plain; charset="UTF-8"

Obrigado por assinar o Floating Notes Pro!

Sua chave de licença: {{.LicenseKey}}
Válida até: {{.ExpiresAt}}

Abra a extensão, vá em Configurações > Licença e cole a chave acima.
`))

// Render monta a mensagem completa (cabeçalhos + corpo) no formato RFC 5322.
func Render(from string, msg LicenseEmail) ([]byte, error) {
	var buf bytes.Buffer
	err := licenseTemplate.Execute(&buf, map[string]string{
		"From":       from,
		"To":         msg.To,
		"LicenseKey": msg.LicenseKey,
		"ExpiresAt":  msg.ExpiresAt.Format("02/01/2006"),
	})
	if err != nil {
		return nil, err
	}
	return bytes.ReplaceAll(buf.Bytes(), []byte("\n"), []byte("\r\n")), nil
}

// LogMailer só registra o e-mail no log. É o padrão quando não há SMTP configurado.
type LogMailer struct{}

func (LogMailer) SendLicense(_ context.Context, msg LicenseEmail) error {
	slog.Info("📧 E-mail de licença (SMTP desabilitado)",
		"to", msg.To, "license_key", msg.LicenseKey, "expires_at", msg.ExpiresAt)
	return nil
}

// SMTPMailer envia pelo servidor SMTP configurado.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// send permite trocar o envio real nos testes.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) SendLicense(ctx context.Context, msg LicenseEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := Render(m.From, msg)
	if err != nil {
		return fmt.Errorf("montar e-mail: %w", err)
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	if err := m.send(addr, auth, m.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("enviar e-mail para %s: %w", msg.To, err)
	}
	return nil
}
