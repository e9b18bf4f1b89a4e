package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/umbracle/solconfig"
	"github.com/umbracle/solconfig/svm"
)

func load(strict bool) (*solconfig.Descriptor, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = solconfig.Discover("."); err != nil {
			return nil, err
		}
	}

	opts := []solconfig.Option{
		solconfig.WithLogger(logger),
	}
	if strict {
		opts = append(opts, solconfig.WithStrict())
	}

	return solconfig.Load(path, opts...)
}

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the config and report every problem found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := load(strict)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c := d.Compiler()
			fmt.Fprintf(out, "compiler: %s %s", c.Name, c.Version)
			if c.Parser != solconfig.ParserDefault {
				fmt.Fprintf(out, " (parser %s)", c.Parser)
			}
			fmt.Fprintln(out)
			for _, n := range d.Networks() {
				fmt.Fprintf(out, "network:  %s %s (network_id %s)\n", n.Label, n.Addr(), n.NetworkID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unknown keys")
	return cmd
}

func networkCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "network <label>",
		Short: "Print the connection profile of a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := load(false)
			if err != nil {
				return err
			}
			n, err := d.GetNetwork(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "    ")
				return enc.Encode(n)
			}
			fmt.Fprintf(out, "url:        %s\n", n.URL())
			fmt.Fprintf(out, "network_id: %s\n", n.NetworkID)
			if n.From != "" {
				fmt.Fprintf(out, "from:       %s\n", n.From)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profile as json")
	return cmd
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <output>",
		Short: "Rewrite the config in the format given by the output extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := load(false)
			if err != nil {
				return err
			}
			if err := d.Save(args[0]); err != nil {
				return err
			}
			logger.WithField("path", args[0]).Info("config written")
			return nil
		},
	}
}

func solcCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "solc",
		Short: "Resolve (and download if needed) the configured solc compiler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := load(false)
			if err != nil {
				return err
			}

			opts := []svm.Option{
				svm.WithLogger(logger.WithFields(logrus.Fields{"component": "svm"})),
			}
			if dir != "" {
				opts = append(opts, svm.WithDir(dir))
			}
			m, err := svm.NewSolidityVersionManager(opts...)
			if err != nil {
				return err
			}

			path, err := d.ResolveCompiler(m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "compiler cache directory (defaults to $HOME/.solc-svm)")
	return cmd
}
