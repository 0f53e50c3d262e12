// Package library is the media library service behind the HTTP API and the
// CLI: upload with synchronous analysis, owner-scoped CRUD, search and
// status.
//
// Every mutation drops the owner's cached search responses.
package library
