// Package postgres provides PostgreSQL implementations of the store and
// task persistence interfaces, with shared mapping from database errors
// to store sentinel errors.
package postgres
