package presets

import "fmt"

// ConfigurationError reports a vendor section that cannot drive generation:
// a missing section, an unsupported version or a malformed group.
type ConfigurationError struct {
	// Field is the dotted path of the offending value, e.g.
	// "vendor.tcpm.preset-groups.configure.prefix".
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Message
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

func configErrorf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
