package ports

// Logger defines the interface for console logging.
// Each method maps onto one severity: debug, info, ok, warn and error.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Error(err error)
}
