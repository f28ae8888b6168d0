// Package service contains the application services: the study service
// façade that turns generation requests into content (never errors), and
// the session service that manages the session lifecycle around
// background synthesis.
package service
