package ddlog

// Facade helpers using global Singleton logger.
// Usage: ddlog.Info().Str("k","v").Msg("hello")

func Silly() *Event   { return L().Silly() }
func Debug() *Event   { return L().Debug() }
func Verbose() *Event { return L().Verbose() }
func Info() *Event    { return L().Info() }
func Warn() *Event    { return L().Warn() }
func Error() *Event   { return L().Error() }
func Fatal() *Event   { return L().Fatal() }
