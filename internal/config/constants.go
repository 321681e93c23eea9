package config

import "time"

const (
	// Run polling
	PollInterval = 1 * time.Second

	// Wall-clock ceilings for one run. Turns that carry attachments or may
	// trigger tool use get the longer ceiling.
	RunTimeoutText  = 30 * time.Second
	RunTimeoutTools = 60 * time.Second

	// File ingestion ceiling per file
	MaxFileSize = 20 << 20 // 20 MB

	// Session titles derive from the first message
	TitleMaxLen = 50

	// Fixed assistant run configuration
	AssistantModel       = "gpt-4o-mini"
	AssistantTemperature = 0.2
	AssistantTopP        = 1.0

	// Scripted greeting sent by the assistant on first contact. Used to fix
	// provider ordering when the greeting and the substantive answer arrive
	// swapped.
	GreetingMarker = "Welcome to TaxChat"

	// Auth token lifetime
	TokenTTL = 7 * 24 * time.Hour

	// Provider HTTP timeout per call
	ProviderRequestTimeout = 90 * time.Second
)

// AssistantInstructions is the system prompt fixed for every run.
const AssistantInstructions = "You are TaxChat, a tax advisory assistant. " +
	"Answer questions about taxation precisely and cite amounts and rates " +
	"exactly as they appear in any provided documents. Answer in the " +
	"language the user writes in. Never mention the documents, files or " +
	"sources you consulted; present every answer as your own knowledge."
