package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sketchflow/internal/config"
	"sketchflow/internal/diagram"
	"sketchflow/internal/optimize"
	"sketchflow/internal/provider"
	"sketchflow/internal/repair"
	"sketchflow/internal/server"
	"sketchflow/internal/session"
	"sketchflow/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "sketchflow",
		Short: "AI-powered diagram generation for Excalidraw scenes",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the local history database (SQLite), overrides config")

	generateCmd.Flags().String("image", "", "Path to an image to convert into a diagram")
	generateCmd.Flags().String("out", "", "Write the final element array to this file instead of stdout")
	generateCmd.Flags().String("title", "", "Save the result to history under this title")
	generateCmd.Flags().String("palette", "", "Apply a named palette to the result")

	optimizeCmd.Flags().String("palette", "", "Apply a named palette after auto-fix")
	optimizeCmd.Flags().String("out", "", "Write the corrected element array to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Server.DBPath = dbPath
	}
	return cfg
}

func initStore(cfg *config.Config) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for the browser front end",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		srv := server.New(cfg, store)
		fmt.Printf("🚀 Listening on %s (db: %s)\n", cfg.Server.Addr, cfg.Server.DBPath)
		if err := srv.Router().Run(cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a diagram from a natural-language description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		gen, err := provider.New(ctx, provider.Options{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
			BaseURL:  cfg.AI.BaseURL,
		})
		if err != nil {
			log.Fatalf("Setup failed: %v\nCheck your config.yaml and API keys.", err)
		}

		req := provider.Request{
			Prompt:      strings.Join(args, " "),
			Temperature: cfg.AI.Temperature,
		}
		if imagePath, _ := cmd.Flags().GetString("image"); imagePath != "" {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				log.Fatalf("Failed to read image: %v", err)
			}
			req.ImageData = data
			req.ImageMIME = mimeForPath(imagePath)
		}

		fmt.Printf("🚀 Generating diagram via %s...\n", gen.Name())

		applied := 0
		sess := session.New(func(elements []diagram.Element) {
			applied++
			fmt.Printf("\r✏️  %d elements (update %d)", len(elements), applied)
		})

		err = gen.GenerateDiagram(ctx, req, func(chunk string) error {
			sess.Feed(chunk)
			return nil
		})
		fmt.Println()
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}

		result, err := sess.Finalize()
		if err != nil {
			log.Fatalf("Response contained no usable diagram: %v", err)
		}

		elements := result.Elements
		name, _ := cmd.Flags().GetString("palette")
		if name == "" {
			name = cfg.Defaults.Palette
		}
		if name != "" {
			p, err := optimize.PaletteByName(name)
			if err != nil {
				log.Fatalf("%v (available: %s)", err, strings.Join(optimize.PaletteNames(), ", "))
			}
			elements = optimize.ApplyPalette(elements, p)
		}

		for _, fix := range result.Fixes {
			fmt.Printf("🔧 %s: %s → %s\n", fix.ElementID, fix.Issue, fix.Action)
		}
		if b := result.Stats.Bounds; b != nil {
			fmt.Printf("✅ %d elements, %d overlaps, %.0fx%.0f canvas.\n",
				result.Stats.ElementCount, result.Stats.OverlapCount, b.Width(), b.Height())
		} else {
			fmt.Printf("✅ %d elements, %d overlaps.\n", result.Stats.ElementCount, result.Stats.OverlapCount)
		}

		if title, _ := cmd.Flags().GetString("title"); title != "" {
			store := initStore(cfg)
			defer store.Close()
			entry := &storage.Entry{Title: title, Description: req.Prompt, Elements: elements}
			if err := store.Save(ctx, entry); err != nil {
				log.Fatalf("Failed to save history entry: %v", err)
			}
			fmt.Printf("💾 Saved to history as %s\n", entry.ID)
		}

		writeElements(cmd, elements)
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <file>",
	Short: "Auto-fix and analyze a diagram JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read file: %v", err)
		}

		elements, err := repair.ExtractElements(repair.Normalize(string(raw)))
		if err != nil {
			log.Fatalf("Failed to parse diagram: %v", err)
		}

		fixed, fixes, hadIssues := optimize.AutoFix(elements)
		name, _ := cmd.Flags().GetString("palette")
		if name == "" {
			name = cfg.Defaults.Palette
		}
		if name != "" {
			p, err := optimize.PaletteByName(name)
			if err != nil {
				log.Fatalf("%v (available: %s)", err, strings.Join(optimize.PaletteNames(), ", "))
			}
			fixed = optimize.ApplyPalette(fixed, p)
		}

		if !hadIssues {
			fmt.Println("✅ No structural issues found.")
		}
		for _, fix := range fixes {
			fmt.Printf("🔧 %s: %s → %s\n", fix.ElementID, fix.Issue, fix.Action)
		}

		d := diagram.New(fixed)
		for _, pair := range optimize.DetectOverlaps(fixed) {
			a, b := d.Get(pair.A), d.Get(pair.B)
			fmt.Printf("⚠️  %s (%s) overlaps %s (%s)\n", pair.A, a.Type, pair.B, b.Type)
		}
		if bounds, ok := diagram.UnionBounds(fixed); ok {
			fmt.Printf("✅ %d elements, %.0fx%.0f canvas.\n", d.Len(), bounds.Width(), bounds.Height())
		}

		writeElements(cmd, fixed)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the local diagram history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved diagrams, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		entries, err := store.List(context.Background(), 0)
		if err != nil {
			log.Fatalf("Failed to list history: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("History is empty.")
			return
		}
		for _, e := range entries {
			fmt.Printf("%s  %-30s  %d elements\n", e.ID, e.Title, len(e.Elements))
		}
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved diagram's element array",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		entry, err := store.Get(context.Background(), args[0])
		if err != nil {
			log.Fatalf("Failed to load entry: %v", err)
		}
		out, _ := json.MarshalIndent(entry.Elements, "", "  ")
		fmt.Println(string(out))
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved diagram",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		if err := store.Delete(context.Background(), args[0]); err != nil {
			log.Fatalf("Failed to delete entry: %v", err)
		}
		fmt.Println("🗑️  Deleted.")
	},
}

func writeElements(cmd *cobra.Command, elements []diagram.Element) {
	out, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode elements: %v", err)
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("📄 Wrote %s\n", path)
		return
	}
	fmt.Println(string(out))
}

func mimeForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
