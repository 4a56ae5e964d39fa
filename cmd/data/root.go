package data

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sicko7947/wldstore/cmd/util"
	"github.com/spf13/cobra"
)

var (
	stores *util.Stores

	// WorkflowCommands groups the workflow operations
	WorkflowCommands = &cobra.Command{
		Use:                "workflows",
		Short:              "List, show, create and delete workflows",
		PersistentPreRunE:  openStores,
		PersistentPostRunE: closeStores,
	}

	// AnnotationCommands groups the annotation operations
	AnnotationCommands = &cobra.Command{
		Use:                "annotations",
		Short:              "Inspect and edit step annotations",
		PersistentPreRunE:  openStores,
		PersistentPostRunE: closeStores,
	}

	// PreferenceCommands groups the preferences operations
	PreferenceCommands = &cobra.Command{
		Use:                "prefs",
		Short:              "Show and change user preferences",
		PersistentPreRunE:  openStores,
		PersistentPostRunE: closeStores,
	}

	// AdminCommands groups maintenance operations on the stored records
	AdminCommands = &cobra.Command{
		Use:                "admin",
		Short:              "Migrate, optimize, back up and inspect stored records",
		PersistentPreRunE:  openStores,
		PersistentPostRunE: closeStores,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	for _, group := range []*cobra.Command{WorkflowCommands, AnnotationCommands, PreferenceCommands, AdminCommands} {
		util.SetupStoreFlags(group)
	}

	WorkflowCommands.AddCommand(listWorkflowsCmd, showWorkflowCmd, newWorkflowCmd, deleteWorkflowCmd, linkStepsCmd)
	AnnotationCommands.AddCommand(showAnnotationsCmd, statsCmd, setFieldCmd, deleteAnnotationCmd)
	PreferenceCommands.AddCommand(showPrefsCmd, setModelCmd, addRecentCmd, setDarkModeCmd, resetPrefsCmd)
	AdminCommands.AddCommand(migrateLegacyCmd, optimizeImagesCmd, backupCmd, listBackupsCmd, keysCmd, sizeCmd)
}

func openStores(cmd *cobra.Command, _ []string) error {
	s, err := util.OpenStores(cmd)
	if err != nil {
		return err
	}
	stores = s
	return nil
}

func closeStores(_ *cobra.Command, _ []string) error {
	if stores == nil {
		return nil
	}
	err := stores.Close()
	stores = nil
	return err
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
