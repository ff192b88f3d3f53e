package cli

import (
	"github.com/spf13/cobra"
)

// syncCommand creates the sync command group.
func (c *CLI) syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Move configuration files between the live and profile trees",
	}

	cmd.AddCommand(c.syncToLiveCommand())
	cmd.AddCommand(c.syncToProfileCommand())
	cmd.AddCommand(c.syncStatusCommand())

	return cmd
}

func (c *CLI) syncToLiveCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "to-live",
		Short: "Copy newer profile shadow configs over the live tree",
		Long: `Copy profile shadow configuration files over their live counterparts
when the shadow copy is newer.

With --force the eligible live files are cleared first and every shadow file
is copied, removing leftovers from a previously active profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			copied, err := m.Syncer().SyncToLive(cmd.Context(), force)
			if err != nil {
				return err
			}
			printSuccess("Synced %d file(s) to the live tree", copied)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "clear eligible live files and copy everything")
	return cmd
}

func (c *CLI) syncToProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "to-profile",
		Short: "Pull newer live configs back into the profile shadow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			copied, err := m.Syncer().SyncToProfile(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Synced %d file(s) to the profile shadow", copied)
			return nil
		},
	}
}

func (c *CLI) syncStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether live and shadow configs are in sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			inSync, err := m.Syncer().InSync()
			if err != nil {
				return err
			}
			if inSync {
				printSuccess("Live and profile configs are in sync")
			} else {
				printWarning("Live and profile configs differ")
			}
			return nil
		},
	}
}

// hookCommand creates the hook command group, the lifecycle triggers a mod
// organizer fires around a game run.
func (c *CLI) hookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Run a lifecycle trigger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "profile-changed",
		Short: "Handle a profile switch: force-sync configs, refresh and persist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.OnProfileChanged(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Profile change handled, %d modules resolved", len(m.Order()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pre-launch",
		Short: "Flush pending writes and push shadow configs live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.OnAboutToLaunch(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Ready to launch")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "post-run",
		Short: "Pull configs the game rewrote back into the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.OnRunFinished(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Run finished, profile shadow updated")
			return nil
		},
	})

	return cmd
}
