package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tankobon/internal/config"
	"tankobon/internal/download"
	"tankobon/internal/logging"
)

type rootFlags struct {
	configPath   string
	output       string
	exportDir    string
	language     string
	fallbackLang string
	chapter      string
	chapterRange string
	cbz          bool
	pdf          bool
	enhance      bool
	dataSaver    bool
	verbose      bool
	dryRun       bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "tankobon <manga-url-or-id>",
		Short: "Download manga chapters from MangaDex and assemble them into CBZ/PDF volumes",
		Long: `tankobon downloads a manga's chapters from MangaDex, groups them into
volumes (or fixed-width chapter bands when the uploads carry no volume
metadata), and assembles each completed group into CBZ and/or PDF files.

Failed chapters never abort the run; they are reported in the end-of-run
summary and their group's raw pages stay on disk for a later retry.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], flags)
		},
	}

	rootCmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "", "download directory (overrides config)")
	rootCmd.Flags().StringVar(&flags.exportDir, "export-dir", "", "export directory (overrides config)")
	rootCmd.Flags().StringVarP(&flags.language, "lang", "l", "", "translated language to download")
	rootCmd.Flags().StringVar(&flags.fallbackLang, "fallback-lang", "", "language to try when a chapter fails in the primary language")
	rootCmd.Flags().StringVar(&flags.chapter, "chapter", "", "download a single chapter by number")
	rootCmd.Flags().StringVar(&flags.chapterRange, "range", "", "download a chapter range, e.g. 10-20")
	rootCmd.Flags().BoolVar(&flags.cbz, "cbz", false, "export groups as CBZ (overrides config)")
	rootCmd.Flags().BoolVar(&flags.pdf, "pdf", false, "export groups as PDF (overrides config)")
	rootCmd.Flags().BoolVar(&flags.enhance, "enhance", false, "upscale pages with the configured external command")
	rootCmd.Flags().BoolVar(&flags.dataSaver, "data-saver", false, "download compressed page variants")
	rootCmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "show verbose progress output")
	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "resolve and list chapters without downloading")

	return rootCmd
}

func loadSettings(cmd *cobra.Command, flags *rootFlags) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if flags.configPath != "" {
		var err error
		settings, err = config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
	}

	if flags.output != "" {
		settings.DownloadDir = flags.output
	}
	if flags.exportDir != "" {
		settings.ExportDir = flags.exportDir
	}
	if flags.language != "" {
		settings.Language = flags.language
	}
	if flags.fallbackLang != "" {
		settings.FallbackLanguage = flags.fallbackLang
	}
	if cmd.Flags().Changed("cbz") {
		settings.ExportCBZ = flags.cbz
	}
	if cmd.Flags().Changed("pdf") {
		settings.ExportPDF = flags.pdf
	}
	if cmd.Flags().Changed("data-saver") {
		settings.DataSaver = flags.dataSaver
	}
	if flags.enhance {
		settings.Enhance = true
	}
	if flags.verbose {
		settings.LogLevel = "debug"
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func run(cmd *cobra.Command, mangaRef string, flags *rootFlags) error {
	settings, err := loadSettings(cmd, flags)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Path:   settings.LogFile,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, finishing the current chapter...")
		cancel()
	}()

	manager := download.NewManager(settings, log, func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !flags.verbose {
			return
		}
		fmt.Println(event.Message)
	})

	selection := download.ParseSelection(flags.chapter, flags.chapterRange, log)
	if err := manager.Initialize(ctx, mangaRef, selection); err != nil {
		return err
	}

	if flags.dryRun {
		fmt.Printf("%s\n\n", manager.MangaTitle())
		for _, name := range manager.ChapterNames() {
			fmt.Println(name)
		}
		return nil
	}

	summary := manager.Run(ctx)
	summary.Render(os.Stdout)

	// Partial failures are reported in the summary; the run itself
	// succeeded.
	return nil
}
