package config

// ValidPriorities are the message priorities accepted by ntfy.
var ValidPriorities = map[string]bool{
	"min": true, "low": true, "default": true, "high": true, "urgent": true,
}

var logLevelNames = []string{"debug", "info", "warn", "error"}

// ValidLogLevels lists the zap levels a config file may select.
var ValidLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}
