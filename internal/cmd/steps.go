package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robertguss/steershaft-checklist/internal/checklist"
	"github.com/robertguss/steershaft-checklist/internal/config"
)

func newStepsCmd(f *flags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "steps [name]",
		Short: "Print the steps of a checklist",
		Long: `Prints the steps of the active checklist, or of the named one.
Use --all to list every available checklist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(cmd, f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if all {
				for _, name := range store.List() {
					marker := " "
					if name == cfg.ActiveChecklist {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s\n", marker, name)
				}
				return nil
			}

			name := cfg.ActiveChecklist
			if len(args) == 1 {
				name = args[0]
			}
			def, ok := store.Get(name)
			if !ok {
				return fmt.Errorf("checklist %q not found in %s", name, store.Dir())
			}

			fmt.Fprintf(out, "%s (%d steps)\n", def.Name, len(def.Steps))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for i, step := range def.Steps {
				fmt.Fprintf(tw, "%d.\t%s\t%s\t%s\n", i+1, step.ID, step.Name, step.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every available checklist instead")
	cmd.AddCommand(newStepsImportCmd(f))
	cmd.AddCommand(newStepsDeleteCmd(f))
	return cmd
}

func newStepsImportCmd(f *flags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a checklist file and add it to the data dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore(cmd, f)
			if err != nil {
				return err
			}

			def, err := checklist.LoadFile(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				def.Name = name
			}
			if err := store.Save(def); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d steps) to %s\n", def.Name, len(def.Steps), store.Path(def.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "store under this name instead of the one in the file")
	return cmd
}

func newStepsDeleteCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a checklist from the data dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(cmd, f)
			if err != nil {
				return err
			}

			name := args[0]
			if name == cfg.ActiveChecklist {
				return fmt.Errorf("cannot delete the active checklist %q", name)
			}
			if _, ok := store.Get(name); !ok {
				return fmt.Errorf("checklist %q not found in %s", name, store.Dir())
			}
			if err := store.Delete(name); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
			return nil
		},
	}
}

// openStore resolves configuration and loads every checklist definition
func openStore(cmd *cobra.Command, f *flags) (*config.Config, *checklist.Store, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, nil, err
	}
	store := checklist.NewStore(cfg.DataDir)
	if err := store.Load(); err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
