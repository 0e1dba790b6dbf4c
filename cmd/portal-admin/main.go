// ABOUTME: Command-line tool for managing portal conversations
// ABOUTME: Lists, inspects, renames, ends, and deletes conversations; runs history queries

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/chat-portal/internal/api"
	"github.com/2389/chat-portal/internal/config"
	"github.com/2389/chat-portal/internal/logging"
	"github.com/2389/chat-portal/internal/querylog"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	// PORTAL_API_URL overrides the configured base URL
	if url := os.Getenv("PORTAL_API_URL"); url != "" {
		cfg.Server.BaseURL = url
	}

	logger := logging.Setup(cfg.Logging)
	client := api.NewClient(cfg.Server.BaseURL,
		api.WithTimeout(cfg.Server.Timeout),
		api.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "list":
		err = cmdList(ctx, client, args)
	case "show":
		err = cmdShow(ctx, client, args)
	case "rename":
		err = cmdRename(ctx, client, args)
	case "end":
		err = cmdEnd(ctx, client, args)
	case "delete":
		err = cmdDelete(ctx, client, args)
	case "query":
		err = cmdQuery(ctx, client, cfg, args)
	case "history":
		err = cmdHistory(ctx, cfg, args)
	case "analytics":
		err = cmdAnalytics(ctx, client)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: portal-admin <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list [-search s] [-status st] [-from d] [-to d]   List conversations")
	fmt.Println("  show <id>                                         Show a conversation with messages")
	fmt.Println("  rename <id> <title>                               Rename a conversation")
	fmt.Println("  end <id>                                          End a conversation")
	fmt.Println("  delete <id>                                       Delete a conversation")
	fmt.Println("  query <question>                                  Ask about past conversations")
	fmt.Println("  history [-n count]                                Show recent local queries")
	fmt.Println("  analytics                                         Show aggregate statistics")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  PORTAL_API_URL   Override the configured API base URL")
	fmt.Println("  PORTAL_CONFIG    Path to the config file")
}

func configPath() string {
	if envPath := os.Getenv("PORTAL_CONFIG"); envPath != "" {
		return envPath
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "portal.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "chat-portal", "portal.yaml")
}

func parseID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("conversation id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid conversation id %q", args[0])
	}
	return id, nil
}

func cmdList(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	search := fs.String("search", "", "Filter by title or topic")
	status := fs.String("status", "", "Filter by status (active|ended)")
	from := fs.String("from", "", "Created on or after (YYYY-MM-DD)")
	to := fs.String("to", "", "Created on or before (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := client.ListConversations(ctx, api.ListParams{
		Search:   *search,
		Status:   *status,
		DateFrom: *from,
		DateTo:   *to,
	})
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tMESSAGES\tCREATED")
	for _, conv := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			conv.ID, conv.Title, conv.Status, conv.MessageCount,
			conv.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func cmdShow(ctx context.Context, client *api.Client, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	conv, err := client.GetConversation(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s [%s]\n", conv.ID, conv.Title, conv.Status)
	fmt.Printf("Created: %s\n", conv.CreatedAt.Local().Format(time.RFC1123))
	if conv.EndedAt != nil {
		fmt.Printf("Ended:   %s\n", conv.EndedAt.Local().Format(time.RFC1123))
	}
	if conv.Summary != "" {
		fmt.Printf("Summary: %s\n", conv.Summary)
	}
	if len(conv.KeyTopics) > 0 {
		fmt.Printf("Topics:  %s\n", strings.Join(conv.KeyTopics, ", "))
	}
	if len(conv.ActionItems) > 0 {
		fmt.Println("Action items:")
		for _, item := range conv.ActionItems {
			fmt.Printf("  - %s\n", item)
		}
	}
	fmt.Println()
	for _, msg := range conv.Messages {
		label := color.CyanString("you:")
		if msg.Sender == api.SenderAI {
			label = color.GreenString("ai: ")
		}
		fmt.Printf("%s %s\n", label, msg.Content)
	}
	return nil
}

func cmdRename(ctx context.Context, client *api.Client, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("new title required")
	}
	title := strings.Join(args[1:], " ")

	conv, err := client.UpdateTitle(ctx, id, title)
	if err != nil {
		return err
	}
	fmt.Printf("Conversation %d renamed to %q\n", conv.ID, conv.Title)
	return nil
}

func cmdEnd(ctx context.Context, client *api.Client, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	conv, err := client.EndConversation(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Conversation %d ended.\n", conv.ID)
	if conv.Summary != "" {
		fmt.Printf("Summary: %s\n", conv.Summary)
	}
	return nil
}

func cmdDelete(ctx context.Context, client *api.Client, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	if err := client.DeleteConversation(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Conversation %d deleted.\n", id)
	return nil
}

func cmdQuery(ctx context.Context, client *api.Client, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("question required")
	}
	question := strings.Join(args, " ")

	result, err := client.QueryConversations(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(result.Response)
	if len(result.RelevantConversations) > 0 {
		fmt.Println()
		fmt.Println("Relevant conversations:")
		for _, conv := range result.RelevantConversations {
			fmt.Printf("  #%d %s\n", conv.ID, conv.Title)
		}
	}
	fmt.Printf("\n(%.2fs)\n", result.ExecutionTime)

	// Best-effort local record; the answer is already on screen
	if cfg.QueryLog.Enabled {
		queries, err := querylog.New(cfg.QueryLog.Path)
		if err == nil {
			defer queries.Close()
			if err := queries.Save(ctx, question, result.Response, result.ExecutionTime); err != nil {
				color.Yellow("warning: could not record query: %v", err)
			}
		}
	}
	return nil
}

func cmdHistory(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	count := fs.Int("n", 10, "Number of entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !cfg.QueryLog.Enabled {
		return fmt.Errorf("query log is disabled in config")
	}

	queries, err := querylog.New(cfg.QueryLog.Path)
	if err != nil {
		return err
	}
	defer queries.Close()

	entries, err := queries.Recent(ctx, *count)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recorded queries.")
		return nil
	}

	for _, entry := range entries {
		fmt.Printf("%s  %s\n", color.HiBlackString(entry.CreatedAt.Local().Format("2006-01-02 15:04")), entry.Query)
		fmt.Printf("    %s\n", entry.Response)
	}
	return nil
}

func cmdAnalytics(ctx context.Context, client *api.Client) error {
	summary, err := client.Analytics(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total conversations:\t%d\n", summary.TotalConversations)
	fmt.Fprintf(w, "Active:\t%d\n", summary.ActiveConversations)
	fmt.Fprintf(w, "Ended:\t%d\n", summary.EndedConversations)
	fmt.Fprintf(w, "Total messages:\t%d\n", summary.TotalMessages)
	if len(summary.TopTopics) > 0 {
		fmt.Fprintf(w, "Top topics:\t%s\n", strings.Join(summary.TopTopics, ", "))
	}
	return w.Flush()
}
