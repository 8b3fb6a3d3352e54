package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jarredhawkins/velocity-lsp/internal/index"
	"github.com/jarredhawkins/velocity-lsp/internal/lsp"
	"github.com/jarredhawkins/velocity-lsp/internal/parser"
	"github.com/jarredhawkins/velocity-lsp/internal/watcher"
)

func main() {
	var (
		rootPath  string
		logFile   string
		debug     bool
		exts      string
		noWatch   bool
		printFile string
	)

	flag.StringVar(&rootPath, "root", "", "Root path of the template workspace (defaults to current directory)")
	flag.StringVar(&logFile, "log", "", "Log file path (defaults to stderr)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&exts, "ext", strings.Join(index.DefaultExtensions, ","), "Comma-separated template file extensions")
	flag.BoolVar(&noWatch, "no-watch", false, "Do not watch the workspace for file changes")
	flag.StringVar(&printFile, "print", "", "Print the folding ranges of a template file as JSON and exit")
	flag.Parse()

	scanner := parser.NewScanner()

	if printFile != "" {
		if err := printRanges(scanner, printFile); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	// Default to current directory
	if rootPath == "" {
		var err error
		rootPath, err = os.Getwd()
		if err != nil {
			log.Fatalf("failed to get current directory: %v", err)
		}
	}

	// Setup logging
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if debug {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}

	log.Printf("velocity-lsp starting, root=%s", rootPath)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	// Create and build the index
	idx := index.New(rootPath, scanner, strings.Split(exts, ","))
	if err := idx.Build(ctx); err != nil {
		log.Fatalf("failed to build index: %v", err)
	}

	if !noWatch {
		w, err := watcher.New(rootPath, idx.IsTemplateFile, func(changed, removed []string) {
			for _, path := range removed {
				idx.RemoveFile(path)
			}
			for _, path := range changed {
				if err := idx.UpdateFile(path); err != nil {
					log.Printf("failed to update file %s: %v", path, err)
				}
			}
		})
		if err != nil {
			log.Fatalf("failed to create watcher: %v", err)
		}
		defer w.Close()

		if err := w.Start(); err != nil {
			log.Fatalf("failed to start watcher: %v", err)
		}
	}

	// Start LSP server on stdio
	server := lsp.NewServer(scanner, idx)
	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("LSP server error: %v", err)
	}

	log.Println("velocity-lsp shutdown complete")
}

// printRanges writes the folding ranges of one file to stdout as JSON
func printRanges(scanner *parser.Scanner, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(scanner.Parse(content)); err != nil {
		return fmt.Errorf("failed to encode ranges: %w", err)
	}
	return nil
}
