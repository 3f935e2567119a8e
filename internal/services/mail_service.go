package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
)

//go:embed templates/*.html
var mailTemplates embed.FS

// Mailer 发送事务邮件
type Mailer interface {
	SendPasswordReset(email, name, link string, minutes int) error
}

type MailService struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Enabled  bool

	templates *template.Template
}

func NewMailService(host string, port int, user, pass, from string) (*MailService, error) {
	tmpl, err := template.ParseFS(mailTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}

	enabled := host != "" && port != 0 && from != ""
	if !enabled {
		log.Println("MailService disabled: Missing SMTP environment variables.")
	}

	return &MailService{
		Host:      host,
		Port:      port,
		Username:  user,
		Password:  pass,
		From:      from,
		Enabled:   enabled,
		templates: tmpl,
	}, nil
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		log.Printf("Mail disabled, dropping %q to %v", subject, to)
		return
	}

	go func() {
		var auth smtp.Auth
		if s.Username != "" {
			auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
		}
		addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: Inkpress <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))

		err := smtp.SendMail(addr, auth, s.From, to, msg)
		if err != nil {
			log.Printf("Failed to send email to %v: %v", to, err)
		} else {
			log.Printf("Email sent to %v: %s", to, subject)
		}
	}()
}

func (s *MailService) render(templateName string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

func (s *MailService) SendPasswordReset(email, name, link string, minutes int) error {
	body, err := s.render("reset.html", map[string]interface{}{
		"Name":    name,
		"Link":    link,
		"Minutes": minutes,
	})
	if err != nil {
		return err
	}
	s.sendAsync([]string{email}, "Reset Password Notification", body)
	return nil
}
