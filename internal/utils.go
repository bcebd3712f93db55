package internal

// Version is the nori release version
const Version = "0.4.0"

// UserAgent is sent with every HTTP request
func UserAgent() string {
	return "nori/" + Version
}
