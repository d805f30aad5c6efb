package email

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Message is a rendered outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the outbound-mail capability injected into the auth service.
// Delivery is best-effort; callers log failures and never block on them.
type Mailer interface {
	Send(msg Message) error
}

// Sender delivers mail over SMTP.
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *Sender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// NopMailer discards everything. Used in tests and when SMTP is not
// configured.
type NopMailer struct{}

func (NopMailer) Send(Message) error { return nil }

var verifyEmailTmpl = template.Must(template.New("verify").Parse(`
<p>Hi {{.FirstName}},</p>
<p>Welcome to Coachlink. Please confirm your email address:</p>
<p><a href="{{.URL}}">Verify email</a></p>
`))

var passwordResetTmpl = template.Must(template.New("reset").Parse(`
<p>Hi {{.FirstName}},</p>
<p>We received a request to reset your password. The link below is valid for one hour:</p>
<p><a href="{{.URL}}">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>
`))

// VerificationMessage renders the email sent after registration. The URL
// embeds the verification code id.
func VerificationMessage(to, firstName, url string) (Message, error) {
	body, err := render(verifyEmailTmpl, map[string]string{"FirstName": firstName, "URL": url})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Verify your email address", Body: body}, nil
}

// PasswordResetMessage renders the reset email. The URL embeds the reset
// code id.
func PasswordResetMessage(to, firstName, url string) (Message, error) {
	body, err := render(passwordResetTmpl, map[string]string{"FirstName": firstName, "URL": url})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Password reset request", Body: body}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
