package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"finassist/internal/assistant"
)

const renderWidth = 100

// render formats markdown answers for the terminal unless raw output was requested.
func render(text string, raw bool) string {
	if raw {
		return text
	}
	return string(markdown.Render(text, renderWidth, 2))
}

func newAskCmd() *cobra.Command {
	var (
		sessionID string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := newAssistantContainer()
			if err != nil {
				return err
			}
			defer container.Shutdown()

			resp := container.Business.Assistant.ProcessQuery(cmd.Context(), assistant.Query{
				Text:      strings.Join(args, " "),
				SessionID: sessionID,
				Channel:   assistant.ChannelCLI,
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render(resp.Display(), raw))
			return err
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "cli", "session id used for guardrail limits")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the answer as plain markdown")
	return cmd
}

func newChatCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := newAssistantContainer()
			if err != nil {
				return err
			}
			defer container.Shutdown()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:            "> ",
				HistoryFile:       historyFile(),
				InterruptPrompt:   "^C",
				EOFPrompt:         "exit",
				HistorySearchFold: true,
				Stdin:             readline.NewCancelableStdin(os.Stdin),
				Stdout:            cmd.OutOrStdout(),
				Stderr:            cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize readline: %w", err)
			}
			defer rl.Close()

			a := container.Business.Assistant
			return runChat(cmd.Context(), rl, cmd.OutOrStdout(), func(ctx context.Context, text, sessionID string) string {
				resp := a.ProcessQuery(ctx, assistant.Query{
					Text:      text,
					SessionID: sessionID,
					Channel:   assistant.ChannelCLI,
				})
				return render(resp.Display(), raw)
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print answers as plain markdown")
	return cmd
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".finassist_history")
}

// lineReader is satisfied by *readline.Instance.
type lineReader interface {
	Readline() (string, error)
}

// answerFunc answers one line of the chat loop.
type answerFunc func(ctx context.Context, text, sessionID string) string

const chatHelp = `Commands:
  /examples  show sample questions
  /new       start a new session
  /help      show this help
  exit       leave the chat`

// runChat reads questions until EOF, Ctrl+C on an empty line, "exit" or "quit".
func runChat(ctx context.Context, in lineReader, out io.Writer, answer answerFunc) error {
	sessionID := uuid.NewString()

	fmt.Fprintln(out, "💰 AI Finance Assistant. Type /help for commands, exit to quit.")
	for {
		input, err := in.Readline()
		if err == readline.ErrInterrupt {
			if len(input) == 0 {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			continue
		} else if err == io.EOF {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		} else if err != nil {
			return err
		}
		line := strings.TrimSpace(input)

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "/exit", "/quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "/help":
			fmt.Fprintln(out, chatHelp)
			continue
		case "/new":
			sessionID = uuid.NewString()
			fmt.Fprintln(out, "Started a new session.")
			continue
		case "/examples":
			for _, ex := range assistant.Examples {
				fmt.Fprintf(out, "%s: %s\n", ex.Label, ex.Query)
			}
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintln(out, answer(ctx, line, sessionID))
	}
}

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List agents with their tools and usage counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := newAssistantContainer()
			if err != nil {
				return err
			}
			defer container.Shutdown()

			a := container.Business.Assistant
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.SystemInfo())

			report, err := a.Usage(cmd.Context(), "")
			if err != nil {
				printErr(cmd, "usage unavailable: %v", err)
				return nil
			}
			fmt.Fprintf(out, "Sessions: %s  Queries: %s\n",
				humanize.Comma(int64(report.Totals.Sessions)),
				humanize.Comma(int64(report.Totals.Requests)))
			for _, u := range report.Agents {
				fmt.Fprintf(out, "%-22s calls=%s failures=%s tokens=%s/%s avg=%dms\n",
					u.Agent, humanize.Comma(u.Calls), humanize.Comma(u.Failures),
					humanize.Comma(u.InputTokens), humanize.Comma(u.OutputTokens), u.AvgLatencyMs)
			}
			return nil
		},
	}
}
