package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stockmeta/internal/batch"
	"stockmeta/internal/domain"
	"stockmeta/internal/domain/jsoncfg"
	"stockmeta/internal/export"
	"stockmeta/internal/infra/settings"
)

var (
	settingsPath string
	providerFlag string
	modelFlag    string
	platformFlag string
	outPath      string
	bundlePath   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <file-or-dir>...",
	Short: "Describe images and write an upload sheet",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		s, err := runSettings(cmd.Context(), e)
		if err != nil {
			return err
		}
		uploads, err := collect(args)
		if err != nil {
			return err
		}

		b := e.deps.Batches.Create(uploads, s)
		for _, name := range b.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", name)
		}
		if len(b.Items()) == 0 {
			return fmt.Errorf("no supported images among %d files", len(uploads))
		}

		// An interrupt lets in-flight attempts finish; unfinished items stay pending.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-cmd.Context().Done():
				e.deps.Batches.Stop(b)
			case <-done:
			}
		}()
		sum, err := e.deps.Batches.Run(context.WithoutCancel(cmd.Context()), b)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, item := range b.Items() {
			switch item.Status {
			case domain.StatusComplete:
				fmt.Fprintf(out, "ok\t%s\t%s\n", item.Filename, item.Metadata.Title)
			case domain.StatusError:
				fmt.Fprintf(out, "error\t%s\t%s\n", item.Filename, item.Err)
			default:
				fmt.Fprintf(out, "%s\t%s\n", item.Status, item.Filename)
			}
		}
		fmt.Fprintf(out, "completed %d, failed %d, requeued %d\n", sum.Completed, sum.Failed, sum.Requeued)

		return write(cmd, b, s)
	},
}

// runSettings starts from the settings file or store and applies flags.
func runSettings(ctx context.Context, e *env) (jsoncfg.Settings, error) {
	var (
		s   jsoncfg.Settings
		err error
	)
	if settingsPath != "" {
		s, err = settings.LoadFile(settingsPath)
	} else {
		s, err = e.deps.Settings.Load(ctx)
	}
	if err != nil {
		return s, err
	}
	if providerFlag != "" {
		p, err := parseProvider(providerFlag)
		if err != nil {
			return s, err
		}
		if p != s.Provider && modelFlag == "" {
			s.Model = ""
		}
		s.Provider = p
	}
	if modelFlag != "" {
		s.Model = modelFlag
	}
	if platformFlag != "" {
		p, ok := domain.ParsePlatform(platformFlag)
		if !ok {
			return s, fmt.Errorf("unsupported platform %q", platformFlag)
		}
		s.Platform = p
	}
	s.Normalize()
	return s, s.Validate()
}

// collect reads files and the top level of directories.
func collect(args []string) ([]batch.Upload, error) {
	var uploads []batch.Upload
	add := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		uploads = append(uploads, batch.Upload{Filename: filepath.Base(path), Data: data})
		return nil
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if err := add(filepath.Join(arg, entry.Name())); err != nil {
				return nil, err
			}
		}
	}
	return uploads, nil
}

func write(cmd *cobra.Command, b *batch.Batch, s jsoncfg.Settings) error {
	path := outPath
	if path == "" {
		path = export.SheetName(s.Platform)
	}
	var buf bytes.Buffer
	if err := export.CSV(&buf, b.Items(), s.Platform, s.ExtensionMode); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)

	if bundlePath == "" {
		return nil
	}
	data, err := export.Bundle(b.Items(), s, time.Now())
	if err != nil {
		return err
	}
	if err := os.WriteFile(bundlePath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", bundlePath)
	return nil
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the category lists the models choose from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, f := range domain.CategoryFields() {
			if f.Secondary() {
				continue
			}
			fmt.Fprintf(out, "%s:\n", f)
			for _, c := range f.Categories() {
				fmt.Fprintf(out, "  %s\n", c)
			}
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&settingsPath, "settings", "", "YAML settings file (defaults to the stored settings)")
	generateCmd.Flags().StringVar(&providerFlag, "provider", "", "gemini, groq or mistral")
	generateCmd.Flags().StringVar(&modelFlag, "model", "", "model identifier")
	generateCmd.Flags().StringVar(&platformFlag, "platform", "", "export platform, e.g. \"Adobe Stock\"")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "CSV output path")
	generateCmd.Flags().StringVar(&bundlePath, "bundle", "", "also write a ZIP with every platform sheet")
	rootCmd.AddCommand(generateCmd, categoriesCmd)
}
