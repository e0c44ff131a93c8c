package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/christopherklint97/redlog/internal/config"
	"github.com/christopherklint97/redlog/internal/notify"
	"github.com/christopherklint97/redlog/internal/tui"
	"github.com/christopherklint97/redlog/internal/watcher"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay running and send queued entries whenever Redmine comes back",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running watcher",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	watchCmd.Flags().Bool("tui", false, "Show an interactive queue monitor")
}

func runWatch(cmd *cobra.Command, args []string) error {
	withTUI, _ := cmd.Flags().GetBool("tui")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	w := watcher.New(a.settings, a.engine, a.cfg.ProbeInterval(), watcher.WithLogger(a.logger))

	if a.cfg.Notifications.Enabled {
		stop := notify.New(a.logger).Watch(a.engine)
		defer stop()
	}

	if !withTUI {
		stop := a.printStatus()
		defer stop()
		return w.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	monitor := tui.NewMonitor(gctx, a.engine, w.Online)
	p := tea.NewProgram(monitor, tea.WithContext(gctx))
	detach := monitor.Attach(p)
	defer detach()

	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("running monitor: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func runStop(cmd *cobra.Command, args []string) error {
	pid, err := watcher.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Printf("Sent stop signal to redlog watcher (PID %d)\n", pid)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	bin, err := exec.LookPath(editor)
	if err != nil {
		fmt.Printf("Could not find editor. Config file is at: %s\n", configPath)
		return nil
	}
	process, err := os.StartProcess(bin, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
