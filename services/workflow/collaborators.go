package workflow

import "context"

// MailMessage is handed to a MailSender by the email node.
type MailMessage struct {
	Recipient string
	Subject   string
	Content   string
	From      string
	HTML      bool
}

// MailReceipt identifies a delivered message.
type MailReceipt struct {
	MessageID string
}

// MailSender delivers email on behalf of the email node.
type MailSender interface {
	Send(ctx context.Context, msg MailMessage) (MailReceipt, error)
}

// HTTPRequest is a generic outbound request issued by the http-request node.
type HTTPRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    any
}

// HTTPResponse is the decoded outcome of an HTTPRequest. Response holds the
// decoded JSON body when possible and the raw text otherwise.
type HTTPResponse struct {
	Status     int
	StatusText string
	Headers    map[string]string
	Response   any
}

// HTTPClient issues outbound HTTP calls.
type HTTPClient interface {
	Do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
}

// Store is the persistence service used by the database node.
type Store interface {
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// GenerateRequest asks a ContentGenerator for a completion.
type GenerateRequest struct {
	Prompt    string
	System    string
	Model     string
	MaxTokens int
}

// GenerateResponse is a generated completion.
type GenerateResponse struct {
	Content string
	Model   string
}

// ContentGenerator produces text with a language model.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// Identity is the caller established by a SessionValidator.
type Identity struct {
	UserID string
	Email  string
}

// SessionValidator turns a session token into an Identity.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (Identity, error)
}
