// Command test-connection verifies the IMAP credentials and mailbox access
// without processing anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/config"
	"github.com/gmcortes/docufind/internal/email"
	"github.com/gmcortes/docufind/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	_ = gotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadDefaults()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewDevelopmentLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Testing IMAP connection",
		zap.String("server", cfg.Email.Server),
		zap.Int("port", cfg.Email.Port),
		zap.String("username", cfg.Email.Username),
		zap.String("mailbox", cfg.Email.Mailbox))

	client := email.NewClient(cfg.Email, logger)
	count, err := client.TestConnection(ctx)
	if err != nil {
		logger.Fatal("Connection test failed", zap.Error(err))
	}

	logger.Info("Connection test succeeded", zap.Uint32("messages_in_mailbox", count))
}
