package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/optimus/internal/appconfig"
	"pkt.systems/optimus/internal/registry"
)

func newOpenCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "open <window>",
		Short: "Create or focus a window in a running shell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromConfig(cfgPath, addr)
			if err != nil {
				return err
			}
			resp, err := client.CreateWindow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			verb := "focused"
			if resp.Created {
				verb = "created"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "window %s %s (windows created: %d)\n", resp.Name, verb, resp.WindowCount)
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "shell API address; overrides http.addr")
	return cmd
}

func newSendCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "send <window> <args...>",
		Short: "Send command arguments to a window in a running shell",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromConfig(cfgPath, addr)
			if err != nil {
				return err
			}
			resp, err := client.CommandHandling(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if !resp.Emitted {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "nothing sent to %s: %s\n", args[0], resp.Reason)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "sent to %s\n", args[0])
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "shell API address; overrides http.addr")
	return cmd
}

func newWindowsCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var live bool
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List registered windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if live {
				client, err := clientFromConfig(cfgPath, addr)
				if err != nil {
					return err
				}
				resp, err := client.Windows(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(tw, "NAME\tSTATE\tLOCATION")
				for _, win := range resp.Windows {
					state := "closed"
					if win.Open {
						state = "open"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", win.Name, state, win.Location)
				}
				return tw.Flush()
			}
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			reg, err := registry.New(cfg.Windows.Locations)
			if err != nil {
				return err
			}
			return writeRegistry(tw, reg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "shell API address; overrides http.addr")
	cmd.Flags().BoolVar(&live, "live", false, "query a running shell for open state")
	return cmd
}

func writeRegistry(tw *tabwriter.Writer, reg *registry.Registry) error {
	names := reg.Names()
	_, _ = fmt.Fprintln(tw, "NAME\tLOCATION")
	for _, name := range names {
		location, err := reg.Resolve(name)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, location)
	}
	return tw.Flush()
}
