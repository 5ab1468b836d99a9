package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/adapters/filter"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/di"
	"github.com/mikey/llm-phish-filter/internal/ports"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(
		logger *zap.Logger,
		emailFilter ports.EmailFilter,
		analyzer core.ContextAnalyzer,
		graphRepo core.GraphRepository,
	) error {
		defer logger.Sync()
		defer graphRepo.Close(context.Background())
		if closer, ok := analyzer.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		email, err := readEmail(flags.InputFile, logger)
		if err != nil {
			return err
		}

		_, err = emailFilter.ProcessEmail(context.Background(), email)
		return err
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// readEmail parses an RFC 5322 message from the given file (or stdin) into
// the normalized pipeline input
func readEmail(inputFile string, logger *zap.Logger) (*core.Email, error) {
	var emailReader io.Reader
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", inputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := filter.ExtractText(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract email body: %w", err)
	}

	return filter.NormalizeEmail(msg, "", "", body)
}
