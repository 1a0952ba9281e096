package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/taskboard/internal/config"
	"github.com/fentz26/taskboard/internal/prefs"
	"github.com/fentz26/taskboard/internal/tui"
)

var (
	configPath string
	initConfig bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the TUI config file")
	tuiCmd.Flags().BoolVar(&initConfig, "init-config", false, "Write the default config file and exit")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if initConfig {
		created, err := config.InitConfig(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Wrote default config to %s\n", configPath)
		} else {
			fmt.Printf("Config already exists at %s\n", configPath)
		}
		return nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	pf, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		return err
	}

	if !isDaemonRunning(apiAddr) {
		fmt.Println("⚡ Taskboard daemon not running. Starting background service...")
		if err := startDaemon(); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}
	}

	app := tui.New(tui.NewClient(apiAddr), cfg, pf)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func isDaemonRunning(addr string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := tui.NewClient(addr).CheckHealth(ctx)
	return err == nil && ok
}

func startDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	serveArgs := []string{"serve"}
	if u, err := url.Parse(apiAddr); err == nil && u.Host != "" {
		serveArgs = append(serveArgs, "--listen", u.Host)
	}

	cmd := exec.Command(exe, serveArgs...)
	// Detach process so it survives TUI exit
	configureDaemonProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for daemon...")
	for i := 0; i < 20; i++ { // Wait up to 5 seconds
		if isDaemonRunning(apiAddr) {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("daemon started but API not reachable at %s", apiAddr)
}
