// Package httpapi serves the review and apply operations of api.Service as
// a small JSON HTTP API, optionally guarded by a bearer token.
package httpapi
