package detector

// NewEnvironmentWith builds an Environment with injected lookups.
func NewEnvironmentWith(getenv func(string) string, isTTY func() bool) *Environment {
	return &Environment{getenv: getenv, isTTY: isTTY}
}
