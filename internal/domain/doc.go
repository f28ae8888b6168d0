// Package domain defines the core business entities of the application:
// study sessions, generated study material, flashcards, and quiz questions.
// Entities validate themselves and carry no persistence or transport concerns.
package domain
