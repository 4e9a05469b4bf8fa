package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	askExecute bool
	askTimeout time.Duration
)

var askCmd = &cobra.Command{
	Use:   `ask "<sentence>"`,
	Short: "Interpret a plain-English RBAC command",
	Long: `Interpret a sentence such as "give the Support Agent role the read_users permission" and print
the resulting command with its validation. With --execute the command is applied when it is
actionable and valid.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		a, err := newApp(cfg, true)
		if err != nil {
			log.Fatalf("failed to init app: %v", err)
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()

		text := strings.Join(args, " ")

		var out interface{}
		if askExecute {
			out, err = a.Processor.Run(ctx, text)
		} else {
			out, err = a.Processor.Interpret(ctx, text)
		}
		if err != nil {
			a.Logger.Error("command failed", "error", err)
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("failed to print result: %v", err)
		}
	},
}

func init() {
	askCmd.Flags().BoolVarP(&askExecute, "execute", "x", false, "apply the command when it is actionable and valid")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall deadline including retries")
}
