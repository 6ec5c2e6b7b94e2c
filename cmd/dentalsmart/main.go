package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Patocuak64/dentalsmart-client/internal/app/bootstrap"
)

const usage = `dentalsmart - dental radiograph analysis client

Usage:
  dentalsmart [flags] <command> [arguments]

Commands:
  login <email> <password>      sign in and persist the session
  register <email> <password>   create an account and sign in
  logout                        destroy the persisted session
  analyze [-save] <image>       analyze a radiograph (use -save to store it)
  history                       list saved analyses
  models                        list available detection models
  serve                         run the local JSON gateway

Flags:
  -config string   path to the YAML config file (default "configs/default.yaml")
`

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/default.yaml", "path to the YAML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, command string, args []string) error {
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer runtime.Close()
	workflow := runtime.Workflow()

	switch command {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: dentalsmart login <email> <password>")
		}
		session, err := workflow.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println("logged in as", session.Email)
		return nil

	case "register":
		if len(args) != 2 {
			return fmt.Errorf("usage: dentalsmart register <email> <password>")
		}
		session, err := workflow.Register(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println("registered and logged in as", session.Email)
		return nil

	case "logout":
		if err := workflow.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "analyze":
		fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
		save := fs.Bool("save", false, "save the analysis to history")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: dentalsmart analyze [-save] <image>")
		}
		path := fs.Arg(0)
		image, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		if err := workflow.AttachImage(filepath.Base(path), image); err != nil {
			return err
		}
		result, err := workflow.Analyze(ctx)
		if err != nil {
			return err
		}
		if *save {
			result, err = workflow.SaveToHistory(ctx)
			if err != nil {
				return err
			}
			fmt.Println("saved to history")
		}
		printAnalysis(result.ReportText, result.Summary.Total, result.Summary.PerClass, result.TeethByCondition)
		return nil

	case "history":
		history, err := workflow.History(ctx)
		if err != nil {
			return err
		}
		if history.Stale {
			fmt.Println("(backend unreachable, showing cached history)")
		}
		if len(history.Analyses) == 0 {
			fmt.Println("no saved analyses")
			return nil
		}
		for _, a := range history.Analyses {
			fmt.Printf("#%d  %s  %s\n", a.ID, a.CreatedAt, a.FileName)
			if len(a.Summary) > 0 {
				var summary struct {
					Total    int            `json:"total"`
					PerClass map[string]int `json:"per_class"`
				}
				if json.Unmarshal(a.Summary, &summary) == nil && summary.Total > 0 {
					fmt.Printf("    %d detections: %s\n", summary.Total, formatCounts(summary.PerClass))
				}
			}
		}
		return nil

	case "models":
		models, err := workflow.Models(ctx)
		if err != nil {
			return err
		}
		for _, m := range models {
			marker := " "
			if m.IsActive {
				marker = "*"
			}
			fmt.Printf("%s %-12s %-28s %s\n", marker, m.ID, m.Name, m.Status)
			if m.Metrics.MAP50 > 0 {
				fmt.Printf("    mAP50 %.3f  mAP50-95 %.3f  precision %.3f  recall %.3f\n",
					m.Metrics.MAP50, m.Metrics.MAP5095, m.Metrics.Precision, m.Metrics.Recall)
			}
		}
		return nil

	case "serve":
		return runtime.Serve(ctx)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func printAnalysis(report string, total int, perClass map[string]int, teeth map[string][]int) {
	if report != "" {
		fmt.Println(report)
		return
	}
	fmt.Printf("%d detections", total)
	if len(perClass) > 0 {
		fmt.Printf(": %s", formatCounts(perClass))
	}
	fmt.Println()
	for condition, fdi := range teeth {
		fmt.Printf("  %s: teeth %v\n", condition, fdi)
	}
}

func formatCounts(perClass map[string]int) string {
	parts := make([]string, 0, len(perClass))
	for class, count := range perClass {
		parts = append(parts, fmt.Sprintf("%s=%d", class, count))
	}
	return strings.Join(parts, ", ")
}
