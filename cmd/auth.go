package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	hashPassword string
	tokenSubject string
	tokenScopes  []string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Operator credential helpers",
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for security.admin_password_hash",
	Long:  `Hash a password for the operator account. Without --password the password is read from stdin.`,
	Run: func(cmd *cobra.Command, args []string) {
		password := hashPassword
		if password == "" {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				log.Fatalf("failed to read password: %v", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			log.Fatal("password must not be empty")
		}

		cost := 0
		if cfg, err := loadConfig(configPath); err == nil {
			cost = cfg.Security.BCryptCost
		}

		hash, err := auth.HashPassword(password, cost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		fmt.Println(hash)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token signed with the configured secret",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if cfg.Security.JWTSecret == "" {
			log.Fatal("security.jwt_secret is not set")
		}

		subject := tokenSubject
		if subject == "" {
			subject = cfg.Security.AdminEmail
		}

		lg := logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
		svc := auth.NewService(
			auth.Credentials{Email: cfg.Security.AdminEmail, PasswordHash: cfg.Security.AdminPasswordHash},
			auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration),
			lg,
		)

		tokens, err := svc.IssueToken(subject, subject, tokenScopes)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(tokens.AccessToken)
	},
}

func init() {
	hashPasswordCmd.Flags().StringVarP(&hashPassword, "password", "p", "", "password to hash (read from stdin when empty)")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject (defaults to security.admin_email)")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scopes", auth.OperatorScopes, "scopes to grant")

	authCmd.AddCommand(hashPasswordCmd)
	authCmd.AddCommand(tokenCmd)
}
