// Package generation contains the request orchestration core for AI/LLM
// content generation: a rotating credential pool, a retrying executor with
// exponential backoff, a parameterized request builder for the four
// generation tasks, and a response normalizer that parses model output into
// domain types. The remote model itself is reached through the ModelCaller
// interface, keeping this package free of transport concerns.
package generation
