package main

// Flag structs decouple cobra from command logic for testing.

// GlobalFlags holds persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Debug      bool
}

// StatusFlags holds flags for the status subcommand.
type StatusFlags struct {
	JSON bool
}

// ServeFlags holds flags for the serve subcommand. Non-empty values override
// the [server] section of the config file.
type ServeFlags struct {
	Listen   string
	BasePath string
	Metrics  bool
}
