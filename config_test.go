package wldstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()

	assert.False(t, prefs.Theme.DarkMode)
	assert.Equal(t, "blue", prefs.Theme.ColorScheme)
	assert.Equal(t, "medium", prefs.Theme.FontSize)
	assert.True(t, prefs.Editor.AutoSave)
	assert.Equal(t, 30, prefs.Editor.AutoSaveIntervalSec)
	assert.True(t, prefs.Editor.ShowStepNumbers)
	assert.Equal(t, CategoryOther, prefs.Editor.DefaultCategory)
	assert.Equal(t, "json", prefs.Export.Format)
	assert.True(t, prefs.Export.IncludeImages)
	assert.True(t, prefs.Export.IncludeMetadata)
	assert.Equal(t, "gpt-4o", prefs.LastUsedModel)
	assert.NotNil(t, prefs.RecentWorkflows)
	assert.Empty(t, prefs.RecentWorkflows)
	assert.Zero(t, prefs.LastUpdated)
}

func TestDefaultPreferences_IndependentCopies(t *testing.T) {
	a := DefaultPreferences()
	a.RecentWorkflows = append(a.RecentWorkflows, "wf")
	a.Theme.DarkMode = true

	b := DefaultPreferences()
	assert.Empty(t, b.RecentWorkflows)
	assert.False(t, b.Theme.DarkMode)
}

func TestDefaultThresholds(t *testing.T) {
	assert.Equal(t, 10*1024, DefaultCompressionThreshold)
	assert.Equal(t, 100*1024, DefaultImageCompressionThreshold)
	assert.Greater(t, DefaultImageCompressionThreshold, DefaultCompressionThreshold)
	assert.Equal(t, 10, MaxRecentWorkflows)
}
