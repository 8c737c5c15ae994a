package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smart-home-assistant/internal/application"
	"smart-home-assistant/internal/domain"
)

const chatHelp = `Commands:
  status   show every device
  history  show recent commands
  help     show this message
  quit     turn everything off and exit
Anything else is sent to the assistant, in English or Persian.`

func chatCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive text session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, setupLogger(cfg.Log))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runChat(ctx, a.assistant, lang, cmd.InOrStdin(), cmd.OutOrStdout())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.shutdown(shutdownCtx)
			fmt.Fprintln(cmd.OutOrStdout(), "👋 Goodbye! All devices turned off.")
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "auto", "input language: auto, en or fa")
	return cmd
}

func runChat(ctx context.Context, assistant *application.Assistant, lang string, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "🏠 Smart Home Assistant. Type 'help' for commands.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return
		case "help":
			fmt.Fprintln(out, chatHelp)
		case "status":
			fmt.Fprintln(out, assistant.StatusReport())
		case "history":
			printHistory(out, assistant.History())
		default:
			reply := assistant.SubmitCommand(ctx, line, lang)
			fmt.Fprintln(out, reply.Text)
			if reply.TranslationDegraded {
				fmt.Fprintln(out, "(translation unavailable, answering in English)")
			}
		}
	}
}

func printHistory(out io.Writer, turns []domain.ConversationTurn) {
	if len(turns) == 0 {
		fmt.Fprintln(out, "No commands yet.")
		return
	}
	for _, t := range turns {
		mark := "✅"
		if !t.Success {
			mark = "❌"
		}
		fmt.Fprintf(out, "%s %s  %s\n   %s\n", t.Timestamp.Format("15:04:05"), mark, t.InputText, strings.ReplaceAll(t.ResponseText, "\n", "\n   "))
	}
}
