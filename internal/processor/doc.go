// Package processor contains the logic behind the search commands. It
// resolves services, drives a session through the requested pages,
// records history, and prints results as text or JSON.
package processor
