package datadog

// severityRemap rewrites level names the events API does not know.
// Anything else, including unknown levels, passes through.
var severityRemap = map[string]AlertType{
	"silly":   AlertInfo,
	"debug":   AlertInfo,
	"verbose": AlertInfo,
	"warn":    AlertWarning,
}

// MapSeverity returns the alert type sent for a log level.
func MapSeverity(level string) AlertType {
	if t, ok := severityRemap[level]; ok {
		return t
	}
	return AlertType(level)
}
