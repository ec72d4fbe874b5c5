package util

import (
	"fmt"
	"net/http"
	"strings"
)

// The language server owns stdout for the wire protocol, so debug logging
// goes to a local side channel instead.
var (
	LoggingEnabled = false
	LogEndpoint    = "http://localhost:8006/log"
)

func LogF(format string, args ...interface{}) {
	if !LoggingEnabled {
		return
	}
	message := fmt.Sprintf(format, args...)
	go http.Post(LogEndpoint, "text/plain", strings.NewReader(message))
}
