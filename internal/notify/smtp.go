package notify

import (
	"fmt"
	"net/smtp"
)

type SMTPMailer struct {
	from     string
	fromName string
	host     string
	port     string
	user     string
	pass     string
}

func NewSMTPMailer(from, fromName, host, port, user, pass string) *SMTPMailer {
	return &SMTPMailer{
		from:     from,
		fromName: fromName,
		host:     host,
		port:     port,
		user:     user,
		pass:     pass,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, m.message(to, subject, body))
}

func (m *SMTPMailer) message(to, subject, body string) []byte {
	msg := fmt.Sprintf("From: %s <%s>\r\n", m.fromName, m.from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "Content-Type: text/plain; charset=UTF-8\r\n"
	msg += "\r\n" + body
	return []byte(msg)
}
