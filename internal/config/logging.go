package config

import (
	"github.com/veganchecker/vcadmin/internal/logging"
)

// ToLoggingConfig converts LoggingConfig to logging.Config. A configured file
// switches the output to that file; otherwise logs go to stderr.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = outputTypeFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

// ToAuditConfig converts AuditConfig to logging.AuditLoggerConfig.
func (ac AuditConfig) ToAuditConfig() logging.AuditLoggerConfig {
	return logging.AuditLoggerConfig{
		Enabled: ac.Enabled,
		File:    ac.File,
	}
}
