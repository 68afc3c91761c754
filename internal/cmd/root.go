package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/wimglenn/mopup/internal/config"
	"github.com/wimglenn/mopup/internal/installer"
	"github.com/wimglenn/mopup/internal/interactive"
	"github.com/wimglenn/mopup/internal/listing"
	"github.com/wimglenn/mopup/internal/output"
	"github.com/wimglenn/mopup/internal/update"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
)

// updateFlags are the knobs of a single update run.
type updateFlags struct {
	interactiveMode  bool
	force            bool
	minorUpgrade     bool
	dryRun           bool
	assumeYes        bool
	baseURL          string
	downloadsDir     string
	installedVersion string
	hostOS           string
}

func Execute(version, commit, date string) error {
	var flags updateFlags

	rootCmd := &cobra.Command{
		Use:   "mopup",
		Short: "Update the macOS python.org build of Python",
		Long: `mopup checks python.org for a newer release compatible with the Python
you have installed, downloads the best build for this Mac, and runs the
system installer on it.

By default only the installed minor line is considered (3.11.x stays on
3.11); use --minor-upgrade to move to a newer minor line. Pre-releases
are only offered when the installed version is itself a pre-release.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(flags)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Update flags
	rootCmd.Flags().BoolVarP(&flags.interactiveMode, "interactive", "i", false, "Open the graphical installer instead of installing unattended")
	rootCmd.Flags().BoolVar(&flags.force, "force", false, "Download and install even when no update is needed")
	rootCmd.Flags().BoolVar(&flags.minorUpgrade, "minor-upgrade", false, "Allow upgrading to a newer minor version line")
	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Detect only; never download or install")
	rootCmd.Flags().BoolVarP(&flags.assumeYes, "yes", "y", false, "Skip the pre-install confirmation")
	rootCmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Release listing URL (default from config)")
	rootCmd.Flags().StringVar(&flags.downloadsDir, "downloads-dir", "", "Directory to download into (default from config)")
	rootCmd.Flags().StringVar(&flags.installedVersion, "installed-version", "", "Treat this as the installed version instead of querying the interpreter")
	rootCmd.Flags().StringVar(&flags.hostOS, "host-os", "", "Treat this as the host macOS version instead of querying sw_vers")

	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}

// runUpdate wires the configuration and collaborators together and runs
// one update pass.
func runUpdate(flags updateFlags) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	cfgPath, err := config.Find(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if verbose && cfgPath != "" {
		fmt.Fprintf(os.Stderr, "Using config: %s\n", cfgPath)
	}

	// Flags override config.
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.downloadsDir != "" {
		cfg.DownloadsDir = flags.downloadsDir
	}
	minorUpgrade := cfg.MinorUpgrade || flags.minorUpgrade

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base URL %q: %w", cfg.BaseURL, err)
	}

	runner := update.ExecRunner{}

	installed, err := resolveInstalled(flags.installedVersion, runner, cfg.Interpreter)
	if err != nil {
		return err
	}
	hostOS, err := resolveHostOS(flags.hostOS, runner)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Installed: %s, host macOS: %s\n", installed, hostOS)
	}

	builder := &update.IndexBuilder{Lister: listing.NewClient()}
	if verbose {
		builder.Warnf = func(f string, args ...any) {
			fmt.Fprintf(os.Stderr, "Warning: "+f+"\n", args...)
		}
	}

	downloader := update.NewDownloader(cfg.DownloadsDir)
	downloader.Quiet = quiet

	updater := &update.Updater{
		Builder:    builder,
		Downloader: downloader,
		Installer:  installer.New(),
		Out:        progressWriter(format),
	}
	if !flags.assumeYes && interactive.IsTerminal() {
		prompter := interactive.NewPrompter()
		updater.Confirm = prompter.Confirm
	}

	result, err := updater.Run(baseURL, installed, hostOS, update.Options{
		Interactive:  flags.interactiveMode,
		Force:        flags.force,
		MinorUpgrade: minorUpgrade,
		DryRun:       flags.dryRun,
	})
	if err != nil {
		return err
	}

	if format != output.FormatText {
		return output.NewWriter(os.Stdout, format).Write(output.CheckResult{
			InstalledVersion: result.Installed.String(),
			LatestVersion:    result.Candidate.Version.String(),
			Platform:         string(result.Candidate.Platform),
			URL:              result.Candidate.URL.String(),
			UpdateNeeded:     result.UpdateNeeded,
			DownloadPath:     result.DownloadPath,
		})
	}
	return nil
}

// resolveInstalled uses the override flag when given, otherwise asks the
// configured interpreter.
func resolveInstalled(override string, runner update.Runner, interpreter string) (*update.Version, error) {
	if override != "" {
		v, err := update.ParseVersion(override)
		if err != nil {
			return nil, fmt.Errorf("--installed-version: %w", err)
		}
		return v, nil
	}
	return update.DetectInstalled(runner, interpreter)
}

// resolveHostOS uses the override flag when given, otherwise asks sw_vers.
func resolveHostOS(override string, runner update.Runner) (update.PlatformTag, error) {
	if override != "" {
		tag, err := update.ParsePlatformTag(override)
		if err != nil {
			return "", fmt.Errorf("--host-os: %w", err)
		}
		return tag, nil
	}
	return update.HostOSVersion(runner)
}

// progressWriter picks the destination for the updater's running
// commentary: discarded under --quiet, stderr when a structured format
// owns stdout, stdout otherwise.
func progressWriter(format output.Format) io.Writer {
	if quiet {
		return io.Discard
	}
	if format != output.FormatText {
		return os.Stderr
	}
	return os.Stdout
}
