package email

// Message is a plain-text email. HTML rendering is not supported.
type Message struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
	Headers map[string]string
}
