// ABOUTME: Interactive terminal chat client for the conversation portal
// ABOUTME: Drives the session controller with a readline loop and slash commands

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/chat-portal/internal/api"
	"github.com/2389/chat-portal/internal/config"
	"github.com/2389/chat-portal/internal/logging"
	"github.com/2389/chat-portal/internal/querylog"
	"github.com/2389/chat-portal/internal/session"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the portal config file.
// Priority: PORTAL_CONFIG env var > XDG_CONFIG_HOME/chat-portal/portal.yaml > ~/.config/chat-portal/portal.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PORTAL_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "portal.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chat-portal", "portal.yaml")
}

func main() {
	// .env is optional; ignore a missing file
	_ = godotenv.Load()

	server := flag.String("server", "", "Portal API base URL (overrides config)")
	configPath := flag.String("config", getConfigPath(), "Path to config file")
	conversationID := flag.Int64("id", 0, "Conversation ID to resume")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("portal-chat %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Server.BaseURL = *server
	}

	logger := logging.Setup(cfg.Logging)

	client := api.NewClient(cfg.Server.BaseURL,
		api.WithTimeout(cfg.Server.Timeout),
		api.WithLogger(logger))

	store := session.NewStore(logger)
	titles := session.NewTitleBroadcaster(logger)
	defer titles.Close()

	opts := []session.ControllerOption{
		session.WithMaxMessageLength(cfg.Session.MaxMessageLength),
		session.WithTitleWindow(cfg.Session.TitleWindowMin, cfg.Session.TitleWindowMax),
		session.WithTitleRefreshDelay(cfg.Session.TitleRefreshDelay),
	}
	if cfg.QueryLog.Enabled {
		queries, err := querylog.New(cfg.QueryLog.Path)
		if err != nil {
			logger.Warn("query log disabled", "error", err)
		} else {
			defer queries.Close()
			opts = append(opts, session.WithQueryRecorder(queries))
		}
	}
	ctrl := session.NewController(client, store, titles, logger, opts...)

	fmt.Printf("portal-chat connected to %s\n", cfg.Server.BaseURL)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	// Setup context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Print title updates as the backend generates or confirms them
	updates, _ := titles.Subscribe(ctx)
	go func() {
		for update := range updates {
			color.Green("✦ Conversation %d titled %q", update.ConversationID, update.Title)
		}
	}()

	if *conversationID != 0 {
		if err := openConversation(ctx, ctrl, *conversationID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := run(ctx, ctrl); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context, ctrl *session.Controller) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(prompt(ctrl.Snapshot()))

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if strings.HasPrefix(input, "/") {
			handleCommand(ctx, ctrl, input)
			fmt.Println()
			continue
		}

		sendMessage(ctx, ctrl, input)
		fmt.Println()
	}
}

// prompt shows the conversation title (or id) when one is bound.
func prompt(snap session.Snapshot) string {
	if snap.ConversationID == 0 {
		return "> "
	}
	label := snap.Title
	if label == "" {
		label = fmt.Sprintf("#%d", snap.ConversationID)
	}
	if snap.Status == api.StatusEnded {
		return fmt.Sprintf("[%s, read-only]> ", label)
	}
	return fmt.Sprintf("[%s]> ", label)
}

func handleCommand(ctx context.Context, ctrl *session.Controller, input string) {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/help":
		printHelp()

	case "/new":
		ctrl.StartNew()
		fmt.Println("Started a new conversation. The next message creates it on the server.")

	case "/open":
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			color.Red("Usage: /open <conversation-id>")
			return
		}
		if err := openConversation(ctx, ctrl, id); err != nil {
			printError(err)
		}

	case "/end":
		conv, err := ctrl.EndConversation(ctx)
		if err != nil {
			printError(err)
			return
		}
		color.Yellow("Conversation ended.")
		if conv.Summary != "" {
			fmt.Printf("Summary: %s\n", conv.Summary)
		}
		if len(conv.KeyTopics) > 0 {
			fmt.Printf("Topics: %s\n", strings.Join(conv.KeyTopics, ", "))
		}

	case "/title":
		if args == "" {
			color.Red("Usage: /title <new title>")
			return
		}
		if err := ctrl.UpdateTitle(ctx, args); err != nil {
			printError(err)
			return
		}
		fmt.Println("Title updated.")

	case "/history":
		printHistory(ctrl.Snapshot())

	case "/query":
		if args == "" {
			color.Red("Usage: /query <question about past conversations>")
			return
		}
		result, err := ctrl.Query(ctx, args)
		if err != nil {
			printError(err)
			return
		}
		fmt.Println(result.Response)
		for _, conv := range result.RelevantConversations {
			fmt.Printf("  - #%d %s\n", conv.ID, conv.Title)
		}

	default:
		color.Red("Unknown command: %s (try /help)", cmd)
	}
}

func openConversation(ctx context.Context, ctrl *session.Controller, id int64) error {
	snap, err := ctrl.Load(ctx, id)
	if err != nil {
		return err
	}
	printHistory(snap)
	if snap.Status == api.StatusEnded {
		color.Yellow("This conversation has ended. You can view messages but cannot send new ones.")
	}
	return nil
}

func sendMessage(ctx context.Context, ctrl *session.Controller, content string) {
	result, err := ctrl.SendMessage(ctx, content)
	if err != nil {
		printError(err)
		return
	}
	if result.Created {
		fmt.Printf("(conversation %d created)\n", result.ConversationID)
	}
	printAssistant(result.AIMessage.Content)
}

func printHistory(snap session.Snapshot) {
	if len(snap.Messages) == 0 {
		fmt.Println("No messages yet.")
		return
	}
	for _, msg := range snap.Messages {
		if msg.Sender == api.SenderUser {
			fmt.Printf("%s %s\n", color.CyanString("you:"), msg.Content)
		} else {
			printAssistant(msg.Content)
		}
	}
}

func printAssistant(content string) {
	fmt.Printf("%s %s\n", color.GreenString("ai:"), content)
}

func printError(err error) {
	switch {
	case errors.Is(err, session.ErrConversationEnded):
		color.Red("You cannot send messages to an ended conversation.")
	case errors.Is(err, session.ErrSendInProgress):
		color.Red("Still waiting for the previous message. Hang on.")
	case errors.Is(err, session.ErrNoActiveConversation):
		color.Red("No active conversation. Send a message to start one.")
	case session.IsValidation(err):
		color.Red("%v", err)
	default:
		color.Red("Error: %v", err)
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /new           Start a new conversation")
	fmt.Println("  /open <id>     Open an existing conversation")
	fmt.Println("  /end           End the current conversation (read-only afterwards)")
	fmt.Println("  /title <t>     Rename the current conversation")
	fmt.Println("  /history       Show the current message list")
	fmt.Println("  /query <q>     Ask a question about past conversations")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit")
}
