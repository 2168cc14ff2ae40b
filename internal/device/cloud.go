package device

import "context"

// Cloud is an authenticated Mijia cloud session.
type Cloud interface {
	// Available reports whether the session is accepted by the cloud.
	Available(ctx context.Context) (bool, error)

	ListDevices(ctx context.Context) ([]Info, error)
	DeviceSpec(ctx context.Context, model string) (*Spec, error)
	GetProperties(ctx context.Context, reqs []PropertyRequest) ([]PropertyResult, error)
	SetProperties(ctx context.Context, reqs []PropertyRequest) ([]PropertyResult, error)
	RunAction(ctx context.Context, req ActionRequest) (*ActionResult, error)
}

// Authenticator obtains a new session.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*AuthData, error)

	// QRLogin blocks until the account owner scans the login QR code or ctx
	// is done.
	QRLogin(ctx context.Context) (*AuthData, error)
}

// CloudFactory opens a Cloud for the given session credentials.
type CloudFactory func(ctx context.Context, auth AuthData) (Cloud, error)

// AuthStore caches session credentials between runs.
type AuthStore interface {
	// Load returns nil, nil when nothing is stored.
	Load(ctx context.Context) (*AuthData, error)
	Save(ctx context.Context, auth AuthData) error
	Clear(ctx context.Context) error
}

// Telemetry records property values observed through the adapter.
type Telemetry interface {
	RecordProperty(did string, siid, piid int, value any)
}

// Logger defines the logging interface used by the Adapter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
