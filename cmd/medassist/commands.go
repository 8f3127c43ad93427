package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2339036/medication-adherence-system/internal/assistant"
	"github.com/2339036/medication-adherence-system/internal/config"
	"github.com/2339036/medication-adherence-system/internal/faq"
	"github.com/2339036/medication-adherence-system/internal/intent"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the assistant",
	Long: `Send one message to the running chat API, or start an interactive
session when no message is given. The session keeps the transcript so
follow-up answers (a medication name, a time) complete the reminder dialogue.

Examples:
  medassist chat --token $TOKEN "when is my next dose?"
  medassist chat --token $TOKEN`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")

		client, err := newAPIClient(token)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if len(args) > 0 {
			reply, err := sendChat(ctx, client, strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			printReply(os.Stdout, reply.Message, reply.Route)
			return nil
		}

		fmt.Fprintln(os.Stderr, colorize(colorBold, "medassist chat")+" (empty line or Ctrl-D to quit)")
		return runChat(ctx, client, os.Stdin, os.Stdout)
	},
}

func init() {
	chatCmd.Flags().String("token", "", "bearer token forwarded to the collaborator services")
}

func sendChat(ctx context.Context, client *apiClient, message string, history []intent.Turn) (assistant.Response, error) {
	resp, err := client.post(ctx, "/api/chatbot/chat", map[string]any{
		"message":             message,
		"conversationHistory": history,
	})
	if err != nil {
		return assistant.Response{}, err
	}
	var reply assistant.Response
	if err := decodeJSON(resp, &reply); err != nil {
		return assistant.Response{}, err
	}
	return reply, nil
}

// runChat reads one message per line until EOF or a blank line, sending the
// accumulated transcript with every turn.
func runChat(ctx context.Context, client *apiClient, in io.Reader, out io.Writer) error {
	var history []intent.Turn
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, colorize(colorBold, "you: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}

		reply, err := sendChat(ctx, client, line, history)
		if err != nil {
			return err
		}
		printReply(out, reply.Message, reply.Route)

		bot := intent.Turn{Speaker: intent.Bot, Text: reply.Message}
		if reply.Type == assistant.KindNavigate {
			bot.Action = &intent.Action{Route: reply.Route}
		}
		history = append(history, intent.Turn{Speaker: intent.User, Text: line}, bot)
	}
}

// --- faq ---

var faqCmd = &cobra.Command{
	Use:   "faq [question]",
	Short: "List the FAQ entries or show the answer for a question",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		kb, err := loadKnowledgeBase(cfg.FAQ.Path)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			listFAQ(os.Stdout, kb)
			return nil
		}
		e, ok := kb.Best(strings.Join(args, " "))
		if !ok {
			printWarning("No FAQ entry matches.")
			return nil
		}
		fmt.Println(e.Answer)
		return nil
	},
}

func listFAQ(w io.Writer, kb *faq.KnowledgeBase) {
	for i, e := range kb.Entries() {
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, fmt.Sprintf("%d.", i+1)), strings.Join(e.Triggers, ", "))
		fmt.Fprintf(w, "   %s\n", e.Answer)
	}
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		writeConfig(os.Stdout, cfg)
		return nil
	},
}

func writeConfig(w io.Writer, cfg config.Config) {
	for _, k := range config.ShowAll(cfg) {
		fmt.Fprintf(w, "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
	}
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
