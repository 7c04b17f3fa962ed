package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/hirepro/funnel/internal/infra/queue"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	AlertTo  string
}

func NewEmailSender(host string, port int, user, password, from, alertTo string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		AlertTo:  alertTo,
	}
}

// SendGroupPostFailure tells an operator that a verified applicant's group
// summary could not be delivered and is sitting on the dead-letter queue.
func (s *EmailSender) SendGroupPostFailure(payload queue.GroupPostPayload, sendErr error) error {
	body := fmt.Sprintf(
		"The one-time group post for a verified applicant could not be delivered "+
			"and was moved to the dead-letter queue.\n\n"+
			"Name: %s\nAge: %s\nPhone: %s\nIP: %s\nCode: %s\n\nLast error: %v\n",
		payload.Name, payload.Age, payload.Phone, payload.IP, payload.Code, sendErr,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.AlertTo)
	m.SetHeader("Subject", fmt.Sprintf("Group post delivery failed for %s", payload.Phone))
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send alert mail: %w", err)
	}

	return nil
}
