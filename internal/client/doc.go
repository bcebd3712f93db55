// Package client implements the SearchClient contract for every supported
// imageboard API family. Clients are built from a Settings value by New and
// share one transport engine; each backend only knows how to build its
// request URL and parse its response.
package client
