package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"medassist/internal/config"
	"medassist/internal/core"
	"medassist/internal/db"
	"medassist/internal/translate"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant about a patient's records from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetString("patient")
			if strings.TrimSpace(patientID) == "" {
				return fmt.Errorf("--patient is required")
			}
			language, _ := cmd.Flags().GetString("language")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var records core.RecordStore
			if cfg.DatabaseURL != "" {
				conn, err := db.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer conn.Close()
				records = db.NewRepository(conn)
			} else {
				logger.Warn().Msg("DATABASE_URL not set, chatting without records")
			}

			p := newPipeline(cfg, records, logger)
			defer p.sessions.CloseAll()
			return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), p, patientID, language)
		},
	}
	cmd.Flags().String("patient", "", "Patient identifier whose records ground the answers")
	cmd.Flags().String("language", "", "Initial language (defaults to the base language)")
	return cmd
}

const chatHelp = `Commands:
  /lang <name>  switch the conversation language
  /langs        list supported languages
  /new          start a new conversation
  /quit         exit`

// runChat reads one message per line until EOF or /quit.
func runChat(ctx context.Context, in io.Reader, out io.Writer, p *pipeline, patientID, language string) error {
	if language != "" {
		if _, ok := translate.LookupCode(language); !ok {
			return fmt.Errorf("%w: %q", core.ErrUnsupportedLanguage, language)
		}
	}
	sess := p.sessions.Create(ctx, patientID, language)
	defer p.sessions.Delete(sess.ID)

	fmt.Fprintln(out, chatHelp)
	printTranscript(out, sess)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "[%s] > ", sess.ActiveLanguage())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/langs":
			fmt.Fprintln(out, strings.Join(translate.Supported(), ", "))
		case line == "/new":
			if err := sess.Reset(ctx); err != nil {
				fmt.Fprintf(out, "could not reset: %v\n", err)
				continue
			}
			printTranscript(out, sess)
		case strings.HasPrefix(line, "/lang "):
			target := strings.TrimSpace(strings.TrimPrefix(line, "/lang "))
			outcome, err := sess.SwitchLanguage(ctx, target)
			if err != nil {
				fmt.Fprintf(out, "could not switch language: %v\n", err)
				continue
			}
			if outcome.RolledBack {
				fmt.Fprintf(out, "translation unavailable, staying in %s\n", sess.ActiveLanguage())
				continue
			}
			printTranscript(out, sess)
		default:
			turn, err := p.chat.Reply(ctx, sess, line)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				fmt.Fprintf(out, "could not send message: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "assistant: %s\n", turn.DisplayedContent)
		}
	}
}

func printTranscript(out io.Writer, sess *core.Session) {
	for _, turn := range sess.View().Turns {
		fmt.Fprintf(out, "%s: %s\n", turn.Role, turn.DisplayedContent)
	}
}
