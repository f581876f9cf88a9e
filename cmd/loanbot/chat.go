package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/susu3304/loanbot/internal/ledger"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the ledger from the terminal",
	Long: `Read messages from stdin and print the ledger's replies.

Type /loans for a summary, /history for past repayments, /reset to
drop the current question and /quit (or EOF) to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		engine, err := newEngine(cfg, st, logger)
		if err != nil {
			return err
		}

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			if interactive {
				fmt.Fprint(out, "> ")
			}
			if !scanner.Scan() {
				if interactive {
					fmt.Fprintln(out)
				}
				return scanner.Err()
			}

			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/reset":
				engine.Reset(chatUser)
				fmt.Fprintln(out, "Okay, starting over.")
				continue
			case "/loans":
				printReply(out, engine.Summary(ctx, chatUser))
				continue
			case "/history":
				notes, err := st.Repayments(ctx, chatUser)
				if err != nil {
					return fmt.Errorf("failed to read repayments: %w", err)
				}
				printReply(out, formatHistory(notes))
				continue
			}
			printReply(out, engine.Handle(ctx, chatUser, line))
		}
	},
}

func formatHistory(notes []ledger.Loan) string {
	if len(notes) == 0 {
		return "No repayments recorded yet."
	}
	var b strings.Builder
	b.WriteString("Repayments:")
	for _, n := range notes {
		fmt.Fprintf(&b, "\n- %s  %s paid $%s (%s)",
			n.CreatedAt.Format("2006-01-02"), n.Entity, humanize.CommafWithDigits(n.Amount, 2), n.Description)
	}
	return b.String()
}

func printReply(w io.Writer, reply string) {
	fmt.Fprintln(w, reply)
	fmt.Fprintln(w)
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "local", "user id to keep the ledger under")
}
