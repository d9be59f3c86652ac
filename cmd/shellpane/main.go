package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	cliconfig "github.com/antonkrylov/shellpane/internal/cli/config"
	"github.com/antonkrylov/shellpane/internal/notify"
	"github.com/antonkrylov/shellpane/internal/record"
	"github.com/antonkrylov/shellpane/internal/session"
	"github.com/antonkrylov/shellpane/internal/shortcut"
	"github.com/antonkrylov/shellpane/internal/sshx"
	"github.com/antonkrylov/shellpane/internal/tui"
)

var version = "dev"

type rootOptions struct {
	configPath string
	recordDir  string
	scrollback int
}

func main() {
	opts := &rootOptions{}

	defaultConfig := os.Getenv("SHELLPANE_CONFIG")
	if defaultConfig == "" {
		defaultConfig = cliconfig.DefaultConfigPath()
	}

	rootCmd := &cobra.Command{
		Use:   "shellpane [server]",
		Short: "Interactive shell panes for remote SSH servers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runPane(opts, name)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "path to shellpane config file (default $HOME/.shellpane/config.yaml)")
	rootCmd.Flags().StringVar(&opts.recordDir, "record", "", "record the session into this directory")
	rootCmd.Flags().IntVar(&opts.scrollback, "scrollback", 0, "scrollback line cap (0 = default, negative = unbounded)")

	rootCmd.AddCommand(newServersCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runPane(opts *rootOptions, serverName string) error {
	cfg, err := cliconfig.Load(opts.configPath)
	if err != nil {
		return err
	}
	srv, name, err := cfg.Resolve(serverName)
	if err != nil {
		return err
	}
	if srv == nil {
		return fmt.Errorf("no server configured; add one to %s", opts.configPath)
	}

	params := sshx.ConnectParams{
		ServerID: name,
		Name:     name,
		Host:     srv.Host,
		Port:     srv.Port,
		Username: srv.Username,
		KeyPath:  srv.KeyPath,
	}
	if strings.TrimSpace(srv.KeyPath) == "" {
		password, err := promptPassword(srv.Username, srv.Host)
		if err != nil {
			return err
		}
		params.Password = password
	}

	pool := sshx.NewPool()
	defer pool.Close()
	if err := pool.Connect(context.Background(), params); err != nil {
		return err
	}

	source := pool.SessionSource(name)

	var recorder session.Recorder
	if opts.recordDir != "" {
		fr, err := record.NewFileRecorder(opts.recordDir, source.SessionContext())
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer fr.Close()
		recorder = fr
		log.Printf("recording session to %s", fr.Dir())
	}

	ctrl := session.New(session.Options{
		Source:          source,
		Executor:        pool,
		Completer:       pool,
		Recorder:        recorder,
		ScrollbackLines: opts.scrollback,
	})

	toasts := notify.NewCenter()
	shortcuts := shortcut.NewRegistry()
	shortcuts.Register("ctrl+r", func() {
		go func() {
			if err := pool.Reconnect(context.Background(), name); err != nil {
				toasts.Error(session.ErrorMessage(err))
				return
			}
			toasts.Success("reconnected")
		}()
	})

	m := tui.New(ctrl, toasts, shortcuts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func promptPassword(username, host string) (string, error) {
	fmt.Fprintf(os.Stderr, "password for %s@%s: ", username, host)
	defer fmt.Fprintln(os.Stderr)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func newServersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List configured servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cliconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cfg == nil || len(cfg.Servers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no servers configured")
				return nil
			}
			names := make([]string, 0, len(cfg.Servers))
			for name := range cfg.Servers {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tHOST\tPORT\tUSER\tAUTH\tCURRENT")
			for _, name := range names {
				srv := cfg.Servers[name]
				auth := "password"
				if srv.KeyPath != "" {
					auth = "key"
				}
				current := ""
				if name == cfg.CurrentServer {
					current = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", name, srv.Host, srv.Port, srv.Username, auth, current)
			}
			return tw.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the shellpane version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "shellpane "+version)
		},
	}
}
