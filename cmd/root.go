// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/audible-tagger/internal/ai"
	"github.com/jdfalk/audible-tagger/internal/backup"
	"github.com/jdfalk/audible-tagger/internal/cleanup"
	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/metadata"
	"github.com/jdfalk/audible-tagger/internal/pipeline"
	"github.com/jdfalk/audible-tagger/internal/realtime"
	"github.com/jdfalk/audible-tagger/internal/server"
	"github.com/jdfalk/audible-tagger/internal/updater"
	"github.com/jdfalk/audible-tagger/internal/watcher"
)

var cfgFile string
var incomingDir string
var libraryDir string
var coversDir string
var databasePath string

// Version is stamped at build time via -ldflags.
var Version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audible-tagger",
	Short: "Tag audiobooks with Audible metadata and organize them into a library",
	Long: `Audible Tagger looks up incoming .m4b audiobooks in the Audible catalog,
writes full metadata tags (Mp3tag Audible web-source convention), downloads
cover art, and files everything into an Author/Series library layout with
OPF sidecars.`,
}

func buildPipeline() (database.Store, *pipeline.Pipeline, error) {
	store, err := database.NewSQLiteStore(config.AppConfig.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	client := metadata.NewAudibleClient(config.AppConfig.PreferredLocale, metadata.AuthorOptions{
		ExcludeTranslators: config.AppConfig.ExcludeTranslators,
		SingleAuthor:       config.AppConfig.OutputSingleAuthor,
	})

	p, err := pipeline.New(config.AppConfig, store, client)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	if config.AppConfig.AIParserEnabled {
		p.SetFilenameParser(ai.NewOpenAIParser(config.AppConfig.OpenAIAPIKey, true))
	}
	return store, p, nil
}

// processCmd works through the incoming directory. Interactive by default;
// --auto selects confident matches unattended and leaves the rest pending.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Tag and organize incoming audiobooks",
	Long: `Scan the incoming directory, look each audiobook up in the Audible
catalog and move tagged files into the library. Without --auto every book
shows its search results for manual selection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, p, err := buildPipeline()
		if err != nil {
			return err
		}
		defer store.Close()

		auto, _ := cmd.Flags().GetBool("auto")
		if !auto {
			return runInteractive(p, store, os.Stdin, os.Stdout)
		}

		paths, err := pipeline.FindAudiobooks(config.AppConfig.IncomingDir)
		if err != nil {
			return fmt.Errorf("failed to scan incoming directory: %w", err)
		}
		if len(paths) == 0 {
			fmt.Println("No audiobooks in incoming directory")
			return nil
		}

		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Tagging audiobooks"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)

		processed, left, err := p.AutoProcessAll(config.AppConfig.IncomingDir, func(fileID string, perr error) {
			_ = bar.Add(1)
		})
		_ = bar.Finish()
		fmt.Println()
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d audiobooks, %d left for manual selection\n", processed, left)
		return nil
	},
}

// serveCmd starts the HTTP API, with the incoming-directory watcher running
// alongside it.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API server",
	Long:  `Start the HTTP API for searching, selecting and processing audiobooks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, p, err := buildPipeline()
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := pipeline.RegisterIncoming(store, config.AppConfig.IncomingDir); err != nil {
			fmt.Printf("Warning: initial incoming scan failed: %v\n", err)
		}
		if removed, err := store.CleanupOldSessions(database.SessionMaxAge); err != nil {
			fmt.Printf("Warning: session cleanup failed: %v\n", err)
		} else if removed > 0 {
			fmt.Printf("Expired %d old search sessions\n", removed)
		}

		hub := realtime.NewEventHub()
		p.SetEventHub(hub)

		if config.AppConfig.AutoUpdateEnabled {
			sched := updater.NewScheduler(updater.NewUpdater(Version), func() updater.SchedulerConfig {
				return updater.SchedulerConfig{
					Enabled:     config.AppConfig.AutoUpdateEnabled,
					Channel:     config.AppConfig.UpdateChannel,
					CheckMins:   config.AppConfig.UpdateCheckMins,
					WindowStart: config.AppConfig.UpdateWindowStart,
					WindowEnd:   config.AppConfig.UpdateWindowEnd,
				}
			})
			sched.Start()
			defer sched.Stop()
		}

		w := watcher.New(func(dir string) {
			ids, err := pipeline.RegisterIncoming(store, dir)
			if err != nil {
				fmt.Printf("Warning: incoming scan failed: %v\n", err)
				return
			}
			hub.SendScanCompleted(len(ids))
			if config.AppConfig.AutoTagEnabled {
				if _, _, err := p.AutoProcessAll(dir, nil); err != nil {
					fmt.Printf("Warning: auto processing failed: %v\n", err)
				}
			}
		}, 0)
		if err := w.Start(config.AppConfig.IncomingDir); err != nil {
			fmt.Printf("Warning: incoming watcher disabled: %v\n", err)
		} else {
			defer w.Stop()
		}

		srv := server.NewServer(config.AppConfig, store, p, hub)

		cfg := server.ServerConfig{
			Port:         "8080",
			Host:         "localhost",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		if port := cmd.Flag("port").Value.String(); port != "" {
			cfg.Port = port
		}
		if host := cmd.Flag("host").Value.String(); host != "" {
			cfg.Host = host
		}
		if rt := cmd.Flag("read-timeout").Value.String(); rt != "" {
			if d, err := time.ParseDuration(rt); err == nil {
				cfg.ReadTimeout = d
			}
		}
		if wt := cmd.Flag("write-timeout").Value.String(); wt != "" {
			if d, err := time.ParseDuration(wt); err == nil {
				cfg.WriteTimeout = d
			}
		}

		return srv.Start(cfg)
	},
}

// scanCmd registers incoming files without processing anything.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Register incoming audiobooks",
	Long:  `Scan the incoming directory and register new audiobooks without tagging them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := database.NewSQLiteStore(config.AppConfig.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		ids, err := pipeline.RegisterIncoming(store, config.AppConfig.IncomingDir)
		if err != nil {
			return fmt.Errorf("scan error: %w", err)
		}
		fmt.Printf("Found %d audiobooks in %s\n", len(ids), config.AppConfig.IncomingDir)
		return nil
	},
}

// cleanupCmd sweeps leftover intermediate files out of the incoming directory.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove leftover temp files from the incoming directory",
	Long: `Remove intermediate files left behind by interrupted tagging runs and
prune empty directories. With --strays every non-.m4b file goes too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strays, _ := cmd.Flags().GetBool("strays")

		report, err := cleanup.Run(config.AppConfig.IncomingDir, strays)
		if err != nil {
			return fmt.Errorf("cleanup error: %w", err)
		}
		fmt.Printf("Removed %d temp files, %d stray files, %d empty directories\n",
			report.TempFiles, report.Strays, report.EmptyDirs)
		return nil
	},
}

// backupCmd archives the tagging database. --list shows existing archives
// and --restore extracts one next to the configured database path.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the tagging database",
	Long: `Create a compressed backup of the SQLite database, or list and restore
existing backups.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backupDir, _ := cmd.Flags().GetString("dir")
		cfg := backup.DefaultConfig()
		if backupDir != "" {
			cfg.BackupDir = backupDir
		}

		if list, _ := cmd.Flags().GetBool("list"); list {
			backups, err := backup.ListBackups(cfg.BackupDir)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Println("No backups found")
				return nil
			}
			for _, b := range backups {
				fmt.Printf("%s  %d bytes  %s\n", b.Filename, b.Size, b.CreatedAt.Format(time.RFC3339))
			}
			return nil
		}

		if restorePath, _ := cmd.Flags().GetString("restore"); restorePath != "" {
			targetDir := filepath.Dir(config.AppConfig.DatabasePath)
			if err := backup.RestoreBackup(restorePath, targetDir); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Printf("Restored %s into %s\n", restorePath, targetDir)
			return nil
		}

		info, err := backup.CreateBackup(config.AppConfig.DatabasePath, cfg)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Created %s (%d bytes, sha256 %s)\n", info.Path, info.Size, info.Checksum[:12])
		return nil
	},
}

// updateCmd checks GitHub for a newer release, and applies it with --apply.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer release",
	Long:  `Query GitHub for the latest release and optionally replace the running binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, _ := cmd.Flags().GetString("channel")
		apply, _ := cmd.Flags().GetBool("apply")

		u := updater.NewUpdater(Version)
		info, err := u.CheckForUpdate(channel)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}

		if !info.UpdateAvailable {
			fmt.Printf("Already up to date (%s, %s channel)\n", info.CurrentVersion, info.Channel)
			return nil
		}

		fmt.Printf("Update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
		if info.ReleaseNotes != "" {
			fmt.Println(info.ReleaseNotes)
		}
		if !apply {
			fmt.Println("Run again with --apply to install it")
			return nil
		}

		if err := u.DownloadAndReplace(info); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		fmt.Println("Update installed; restart to use the new version")
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = Version

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.audible-tagger.yaml)")
	rootCmd.PersistentFlags().StringVar(&incomingDir, "incoming", "incoming", "directory with untagged audiobooks")
	rootCmd.PersistentFlags().StringVar(&libraryDir, "library", "library", "root of the organized audiobook library")
	rootCmd.PersistentFlags().StringVar(&coversDir, "covers", "covers", "directory for downloaded cover art")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "audiobooks.db", "path to the SQLite database")

	viper.BindPFlag("incoming_dir", rootCmd.PersistentFlags().Lookup("incoming"))
	viper.BindPFlag("library_dir", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("covers_dir", rootCmd.PersistentFlags().Lookup("covers"))
	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(backupCmd)

	processCmd.Flags().Bool("auto", false, "select confident matches without asking")

	updateCmd.Flags().String("channel", "stable", "release channel (stable or develop)")
	updateCmd.Flags().Bool("apply", false, "download and install the update")

	backupCmd.Flags().String("dir", "backups", "directory for backup archives")
	backupCmd.Flags().Bool("list", false, "list existing backups")
	backupCmd.Flags().String("restore", "", "backup archive to restore")

	serveCmd.Flags().String("port", "8080", "port to run the web server on")
	serveCmd.Flags().String("host", "localhost", "host to bind the web server to")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")

	cleanupCmd.Flags().Bool("strays", false, "also remove non-.m4b files")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".audible-tagger")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()

	for _, dir := range []string{config.AppConfig.IncomingDir, config.AppConfig.LibraryDir, config.AppConfig.CoversDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("Error creating directory %s: %v\n", dir, err)
		}
	}
}
