// Package api contains the HTTP handlers, request/response models, and
// error mapping for the study session and generation endpoints.
package api
