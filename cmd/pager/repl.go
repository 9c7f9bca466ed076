package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/tailored-agentic-units/pager/model"
	"github.com/tailored-agentic-units/pager/pager"
)

const defaultListLimit = 50

// REPL is the interactive command loop.
type REPL struct {
	pager *pager.Pager
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".pager_history")
}

// Run reads commands until exit, EOF or Ctrl-C at the prompt.
func (r *REPL) Run(ctx context.Context) error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}
	defer r.saveHistory()

	fmt.Printf("pager (page_size=%d)\n", r.pager.Buffer().PageSize())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt(fmt.Sprintf("pager[%d]> ", r.pager.Active()))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			return nil
		case "help", "?":
			r.printHelp()
		case "page", "p":
			r.cmdPage(ctx, args)
		case "next", "n":
			r.report(r.pager.Buffer().LoadNextPage(ctx))
		case "prev":
			r.report(r.pager.Buffer().LoadPrevPage(ctx))
		case "items", "ls":
			r.cmdItems(args)
		case "status", "info":
			r.cmdStatus()
		case "fork":
			fmt.Printf("Switched to buffer %d\n", r.pager.Fork())
		case "use":
			r.cmdUse(args)
		case "buffers":
			r.cmdBuffers()
		case "get":
			r.cmdGet(args)
		case "export":
			r.cmdExport(args)
		case "stats":
			r.cmdStats()
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"page", "next", "prev", "items", "ls",
		"status", "info", "fork", "use", "buffers",
		"get", "export", "stats",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  page <n> [size]   Load page n")
	fmt.Println("  next / prev       Load the page after or before the current one")
	fmt.Println("  items [limit]     List held records")
	fmt.Println("  status            Show buffer state")
	fmt.Println("  fork              Fork the active buffer and switch to it")
	fmt.Println("  use <n>           Switch to buffer n")
	fmt.Println("  buffers           List buffers")
	fmt.Println("  get <key>         Look a record up in the shared store")
	fmt.Println("  export <file>     Write held records as JSON")
	fmt.Println("  stats             Show load counters")
	fmt.Println("  help              Show this help")
	fmt.Println("  exit / quit / q   Exit")
}

func (r *REPL) report(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	r.cmdStatus()
}

func (r *REPL) cmdPage(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: page <n> [size]")
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid page: %s\n", args[0])
		return
	}

	size := r.pager.Buffer().PageSize()
	if len(args) > 1 {
		if size, err = strconv.Atoi(args[1]); err != nil {
			fmt.Printf("Invalid size: %s\n", args[1])
			return
		}
	}

	r.report(r.pager.Buffer().LoadPageSize(ctx, n, size))
}

func (r *REPL) cmdItems(args []string) {
	limit := defaultListLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Printf("Invalid limit: %s\n", args[0])
			return
		}
		limit = n
	}

	view := r.pager.Buffer().View()
	shown := min(view.Len(), limit)
	for i := range shown {
		rec, ok := view.At(i)
		if !ok {
			fmt.Printf("  %4d  <gap>\n", i)
			continue
		}
		fmt.Printf("  %4d  %s\n", i, summary(rec))
	}

	if view.Len() > shown {
		fmt.Printf("  ... %d more\n", view.Len()-shown)
	}
	fmt.Printf("(%d positions)\n", view.Len())
}

func (r *REPL) cmdStatus() {
	b := r.pager.Buffer()
	view := b.View()

	fmt.Printf("  status:  %s\n", b.Status())
	fmt.Printf("  page:    %d (size %d)\n", b.CurrentPage(), b.PageSize())
	fmt.Printf("  held:    %d of %d\n", view.Len(), b.Total())

	for _, gap := range view.Gaps() {
		fmt.Printf("  gap:     [%d, %d)\n", gap.Start, gap.End)
	}
}

func (r *REPL) cmdUse(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: use <n>")
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid buffer: %s\n", args[0])
		return
	}

	if err := r.pager.Use(n); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	r.cmdStatus()
}

func (r *REPL) cmdBuffers() {
	for i, b := range r.pager.Buffers() {
		marker := " "
		if i == r.pager.Active() {
			marker = "*"
		}
		fmt.Printf("%s %d  %-12s page %d, %d held  %s\n",
			marker, i, b.Status(), b.CurrentPage(), b.View().Len(), b.Handle())
	}
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")
		return
	}

	rec, ok := r.pager.Get(args[0])
	if !ok {
		fmt.Println("Not found")
		return
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func (r *REPL) cmdExport(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: export <file>")
		return
	}

	if err := r.pager.Export(args[0]); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Wrote %d records to %s\n", len(r.pager.Buffer().Items()), args[0])
}

func (r *REPL) cmdStats() {
	m := r.pager.Metrics()

	fmt.Printf("  loads:          %d\n", m.Loads)
	fmt.Printf("  hits:           %d\n", m.Hits)
	fmt.Printf("  errors:         %d\n", m.Errors)
	fmt.Printf("  merged:         %d\n", m.Merged)
	fmt.Printf("  status changes: %d\n", m.StatusChanges)
}

// summary renders a record as its key followed by its other fields.
func summary(rec model.Record) string {
	var b strings.Builder
	b.WriteString(rec.Key())

	for _, field := range rec.Fields() {
		v, _ := rec.Get(field)
		fmt.Fprintf(&b, "  %s=%v", field, v)
	}

	return b.String()
}
