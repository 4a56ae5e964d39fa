package wldstore

// Storage layout defaults
const (
	// DefaultNamespace prefixes every record key as "<namespace>_<key>"
	DefaultNamespace = "wld"

	// DefaultSchemaVersion is the envelope version written by a store that
	// has not been configured otherwise
	DefaultSchemaVersion = 1

	// DefaultCompressionThreshold is the estimated size (bytes) at which
	// record envelopes are compressed
	DefaultCompressionThreshold = 10 * 1024

	// DefaultImageCompressionThreshold is the estimated size (bytes) at which
	// step image data is compressed on its own
	DefaultImageCompressionThreshold = 100 * 1024

	// DefaultLegacyWorkflowsKey is the pre-versioning key holding a plain
	// JSON array of workflows
	DefaultLegacyWorkflowsKey = "workflows"

	// MaxRecentWorkflows bounds Preferences.RecentWorkflows
	MaxRecentWorkflows = 10

	// DefaultWorkflowTitle is used by CreateNew when no title is given
	DefaultWorkflowTitle = "New Workflow"
)

// Record keys owned by the domain stores
const (
	KeyWorkflows   = "workflows"
	KeyAnnotations = "annotations"
	KeyPreferences = "preferences"
)

// DefaultPreferences returns the hardcoded preferences record
func DefaultPreferences() Preferences {
	return Preferences{
		Theme: ThemeSettings{
			DarkMode:    false,
			ColorScheme: "blue",
			FontSize:    "medium",
		},
		Editor: EditorSettings{
			AutoSave:            true,
			AutoSaveIntervalSec: 30,
			ShowStepNumbers:     true,
			DefaultCategory:     CategoryOther,
		},
		Export: ExportSettings{
			Format:          "json",
			IncludeImages:   true,
			IncludeMetadata: true,
		},
		LastUsedModel:   "gpt-4o",
		RecentWorkflows: []string{},
		LastUpdated:     0,
	}
}
