package mailer

import (
	"sync"
)

// Email is one recorded Send call.
type Email struct {
	Recipient string
	Template  string
	Data      any
}

// MockMailer records outgoing mail instead of speaking SMTP.
type MockMailer struct {
	mu   sync.RWMutex
	sent []Email
	err  error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{sent: make([]Email, 0)}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, Email{Recipient: recipient, Template: templateFile, Data: data})
	return nil
}

// FailWith makes every subsequent Send call return err.
func (m *MockMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockMailer) Sent() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := make([]Email, len(m.sent))
	copy(sent, m.sent)
	return sent
}
