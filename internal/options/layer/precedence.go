package layer

// Standard priority levels for option layers.
// Higher values override lower values during merging.
const (
	PriorityDefaults = 0
	PriorityTheme    = 100
	PriorityFile     = 200
	PriorityEnv      = 500
	PriorityScript   = 600
	PrioritySession  = 1000
)

// DefaultPriority returns the default priority for a given source.
func DefaultPriority(source Source) int {
	switch source {
	case SourceDefaults:
		return PriorityDefaults
	case SourceTheme:
		return PriorityTheme
	case SourceFile:
		return PriorityFile
	case SourceEnv:
		return PriorityEnv
	case SourceScript:
		return PriorityScript
	case SourceSession:
		return PrioritySession
	default:
		return PriorityDefaults
	}
}

// StandardLayerName returns the conventional layer name for a source.
func StandardLayerName(source Source) string {
	return source.String()
}
