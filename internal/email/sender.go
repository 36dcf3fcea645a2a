// Package email arma y envía las notificaciones de la capa de identidad.
//
// Los services nunca envían en línea: encolan en un Dispatcher que entrega en
// background. Un fallo de envío se loguea y no revierte el cambio de estado.
package email

import (
	"sync"

	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// Sender entrega un mensaje ya renderizado.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// Message es un email renderizado.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// LogSender no envía: loguea el mensaje y guarda los últimos en memoria.
// Driver "log" para dev; los tests lo usan para leer links.
type LogSender struct {
	mu   sync.Mutex
	keep int
	msgs []Message
}

func NewLogSender(keep int) *LogSender {
	if keep <= 0 {
		keep = 100
	}
	return &LogSender{keep: keep}
}

func (s *LogSender) Send(to, subject, htmlBody, textBody string) error {
	logger.L().Info("email (log driver)",
		logger.Component("email.log"),
		logger.Email(to),
		logger.String("subject", subject),
	)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, Message{To: to, Subject: subject, HTML: htmlBody, Text: textBody})
	if len(s.msgs) > s.keep {
		s.msgs = s.msgs[len(s.msgs)-s.keep:]
	}
	return nil
}

// Sent devuelve una copia de los mensajes guardados, del más viejo al más nuevo.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

// Last devuelve el último mensaje enviado a `to`.
func (s *LogSender) Last(to string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.msgs) - 1; i >= 0; i-- {
		if s.msgs[i].To == to {
			return s.msgs[i], true
		}
	}
	return Message{}, false
}
