// Package task provides background task processing: a worker-pool runner
// over a persisted task queue, and the synthesis task that generates
// study material for newly created sessions.
package task
