package ports

// Environment answers questions about the machine the session runs on.
//
//go:generate go run go.uber.org/mock/mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type Environment interface {
	// Interactive reports whether a person is watching the console.
	Interactive() bool
	// LookPath resolves an executable on PATH.
	LookPath(name string) (string, error)
	// OpenBrowser opens url in the user's default browser.
	OpenBrowser(url string) error
}
