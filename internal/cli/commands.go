package cli

import (
	"fmt"
	"os"

	"github.com/specialistvlad/pipedef/internal/export"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH...",
		Short: "Load and validate a project",
		Args:  pathArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd, args, "")
			if err != nil {
				return err
			}
			rp := a.Project()
			fmt.Fprintf(cmd.OutOrStdout(), "Project %s is valid: %d build type(s).\n", rp.Project().ID, len(rp.BuildOrder()))
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		outputFormat string
		outFile      string
	)
	cmd := &cobra.Command{
		Use:   "export PATH...",
		Short: "Export the resolved project as JSON, YAML or HCL",
		Args:  pathArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(outputFormat)
			if err != nil {
				return usageError("%v", err)
			}
			a, err := opts.load(cmd, args, "")
			if err != nil {
				return err
			}
			if outFile == "" {
				return a.Export(cmd.Context(), cmd.OutOrStdout(), format)
			}

			f, err := os.Create(outFile)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outFile, err)
			}
			if err := a.Export(cmd.Context(), f, format); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "Output format: json, yaml or hcl.")
	cmd.Flags().StringVar(&outFile, "out", "", "Write to this file instead of stdout.")
	return cmd
}

func newSnapshotCmd(opts *options) *cobra.Command {
	var (
		outputFormat string
		list         bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot PATH...",
		Short: "Store the resolved project in the snapshot database",
		Args:  pathArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(outputFormat)
			if err != nil {
				return usageError("%v", err)
			}
			a, err := opts.load(cmd, args, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				snaps, err := a.Snapshots(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range snaps {
					fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Format, s.Digest[:12])
				}
				return nil
			}

			snap, created, err := a.Snapshot(cmd.Context(), format)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(out, "Snapshot %d stored (%s).\n", snap.ID, snap.Digest[:12])
			} else {
				fmt.Fprintf(out, "Project unchanged since snapshot %d.\n", snap.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "Snapshot encoding: json, yaml or hcl.")
	cmd.Flags().BoolVar(&list, "list", false, "List stored snapshots instead of storing one.")
	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr      string
		snapshots bool
	)
	cmd := &cobra.Command{
		Use:   "serve PATH...",
		Short: "Serve the resolved project over a read-only HTTP API",
		Args:  pathArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd, args, addr)
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context(), snapshots)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address.")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Also serve the snapshot history from --db.")
	return cmd
}
