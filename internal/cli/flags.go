package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile  string
	Database string
	LogLevel string
	Timeout  time.Duration

	// Search flags
	Service   string
	Page      int
	Pages     int
	BatchFile string
	JSON      bool

	// Service management flags
	APIType       string
	Endpoint      string
	Username      string
	Password      string
	DetectTimeout time.Duration

	// History flags
	ClearHistory bool
	HistoryLimit int

	// Serve flags
	Addr string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:      "warn",
		Timeout:       30 * time.Second,
		Pages:         1,
		DetectTimeout: 10 * time.Second,
		HistoryLimit:  20,
		Addr:          "127.0.0.1:8080",
	}
}
