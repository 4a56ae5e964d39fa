package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sicko7947/wldstore"
	"github.com/spf13/cobra"
)

var (
	listWorkflowsCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, w := range stores.Workflows.GetAll(cmd.Context()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d steps\n", w.ID, w.Title, len(w.Steps))
			}
			return nil
		},
	}
	showWorkflowCmd = &cobra.Command{
		Use:   "show [id]",
		Short: "Prints a workflow as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, ok := stores.Workflows.GetByID(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("workflow %s not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), w)
		},
	}
	newWorkflowCmd = &cobra.Command{
		Use:   "new [title]",
		Short: "Creates and saves an empty workflow",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			w := stores.Workflows.CreateNew(title)
			if err := stores.Workflows.Save(cmd.Context(), &w); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), w.ID)
			return nil
		},
	}
	deleteWorkflowCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Deletes a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := stores.Workflows.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("workflow %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted successfully")
			return nil
		},
	}
	linkStepsCmd = &cobra.Command{
		Use:   "link [workflow] [prerequisite] [dependent]",
		Short: "Records a prerequisite relationship on both steps",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, ok := stores.Workflows.GetByID(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("workflow %s not found", args[0])
			}
			if err := wldstore.LinkSteps(w.Steps, args[1], args[2]); err != nil {
				return err
			}
			if err := wldstore.NewStepGraph(w.Steps).Validate(); err != nil {
				return err
			}
			if err := stores.Workflows.Save(cmd.Context(), &w); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "linked successfully")
			return nil
		},
	}

	showAnnotationsCmd = &cobra.Command{
		Use:   "show [workflow] [step]",
		Short: "Prints the annotations of a workflow, or of one step",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				a, ok := stores.Annotations.GetStepAnnotation(cmd.Context(), args[0], args[1])
				if !ok {
					return fmt.Errorf("no annotation for step %s of workflow %s", args[1], args[0])
				}
				return printJSON(cmd.OutOrStdout(), a)
			}
			all, ok := stores.Annotations.GetWorkflowAnnotations(cmd.Context(), args[0])
			if !ok {
				all = map[string]wldstore.StepAnnotation{}
			}
			return printJSON(cmd.OutOrStdout(), all)
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats [workflow]",
		Short: "Prints how completely a workflow is annotated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), stores.Annotations.Stats(cmd.Context(), args[0]))
		},
	}
	setFieldCmd = &cobra.Command{
		Use:   "set [workflow] [step] [field] [json-value]",
		Short: "Sets one field of an existing annotation",
		Long: `Sets one field of an existing annotation. The value is parsed as JSON
and falls back to a plain string, so both '"Log in"' and 'Log in' work.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[3]), &value); err != nil {
				value = args[3]
			}
			if err := stores.Annotations.UpdateField(cmd.Context(), args[0], args[1], args[2], value); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "set successfully")
			return nil
		},
	}
	deleteAnnotationCmd = &cobra.Command{
		Use:   "delete [workflow] [step]",
		Short: "Deletes the annotations of a workflow, or of one step",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed bool
			var err error
			if len(args) == 2 {
				removed, err = stores.Annotations.DeleteStepAnnotation(cmd.Context(), args[0], args[1])
			} else {
				removed, err = stores.Annotations.DeleteWorkflowAnnotations(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if !removed {
				return errors.New("nothing to delete")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted successfully")
			return nil
		},
	}

	showPrefsCmd = &cobra.Command{
		Use:   "show",
		Short: "Prints the preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), stores.Preferences.Get(cmd.Context()))
		},
	}
	setModelCmd = &cobra.Command{
		Use:   "model [name]",
		Short: "Sets the last used model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stores.Preferences.SetLastUsedModel(cmd.Context(), args[0])
		},
	}
	addRecentCmd = &cobra.Command{
		Use:   "recent [workflow]",
		Short: "Moves a workflow to the front of the recent list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stores.Preferences.AddRecentWorkflow(cmd.Context(), args[0])
		},
	}
	setDarkModeCmd = &cobra.Command{
		Use:   "dark-mode [true|false]",
		Short: "Turns dark mode on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("dark-mode must be true or false: %w", err)
			}
			return stores.Preferences.UpdateTheme(cmd.Context(), wldstore.ThemePatch{DarkMode: wldstore.ToPtr(on)})
		},
	}
	resetPrefsCmd = &cobra.Command{
		Use:   "reset",
		Short: "Overwrites the preferences with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return stores.Preferences.ResetToDefaults(cmd.Context())
		},
	}

	migrateLegacyCmd = &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Imports workflows from the legacy key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := stores.Workflows.MigrateLegacy(cmd.Context())
			if errors.Is(err, wldstore.ErrNothingToMigrate) {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to migrate under %q\n", stores.Workflows.LegacyKey())
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d workflows\n", len(stores.Workflows.GetAll(cmd.Context())))
			return nil
		},
	}
	optimizeImagesCmd = &cobra.Command{
		Use:   "optimize-images",
		Short: "Compresses stored step images above the image threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := stores.Workflows.OptimizeImageStorage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compressed %d images\n", count)
			return nil
		},
	}
	backupCmd = &cobra.Command{
		Use:   "backup [workflows|annotations|preferences]",
		Short: "Copies a record to a timestamped backup key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recordByName(args[0])
			if err != nil {
				return err
			}
			key, err := r.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			if key == "" {
				return fmt.Errorf("%s holds no value", r.Key())
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	listBackupsCmd = &cobra.Command{
		Use:   "backups [workflows|annotations|preferences]",
		Short: "Lists the backups of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recordByName(args[0])
			if err != nil {
				return err
			}
			keys, err := r.ListBackups(cmd.Context())
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [prefix]",
		Short: "Lists the raw backend keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := stores.Backend.Keys(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
	sizeCmd = &cobra.Command{
		Use:   "size",
		Short: "Prints the estimated storage size of each record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{wldstore.KeyWorkflows, wldstore.KeyAnnotations, wldstore.KeyPreferences} {
				r, _ := recordByName(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", r.Key(), r.ApproximateSize(cmd.Context()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "images\t%d\n", stores.Workflows.TotalImageStorageSize(cmd.Context()))
			return nil
		},
	}
)
