// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts and cross-cutting values that are shared
between different layers of the system.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "solace-agent"
	AppVersion = "0.1.0-dev"
)

// # Timing

const (
	// GlobalRequestTimeout is the deadline for any single outbound API call.
	GlobalRequestTimeout = 15 * time.Second

	// ShutdownTimeout is how long we wait for in-flight work to complete
	// during shutdown.
	ShutdownTimeout = 10 * time.Second

	// StatementTimeout bounds any single database statement.
	StatementTimeout = 30 * time.Second
)
