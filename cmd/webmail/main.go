package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	"github.com/nhle/webmail/internal/app"
	"github.com/nhle/webmail/internal/credential"
	"github.com/nhle/webmail/internal/identity"
	"github.com/nhle/webmail/internal/logging"
	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/mail/httpapi"
	"github.com/nhle/webmail/internal/mail/imapgw"
	"github.com/nhle/webmail/internal/model"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webmail: %v\n", err)
		os.Exit(1)
	}

	if flag.Arg(0) == "login" {
		if err := runLogin(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "webmail: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webmail: opening log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	store, ident, err := buildBackend(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webmail: %v\n", err)
		os.Exit(1)
	}

	m := app.New(store, ident, logger, cfg.Display.PageSize)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "webmail: %v\n", err)
		os.Exit(1)
	}
}

// runLogin prompts for the backend credential and stores it in the
// system keyring.
func runLogin(cfg *model.AppConfig) error {
	var key, title string
	switch cfg.Backend {
	case model.BackendHTTP:
		key, title = credential.KeySessionToken, "Session token"
	case model.BackendIMAP:
		key, title = credential.KeyIMAPPassword, "IMAP password for "+cfg.IMAP.Username
	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	var secret string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Value(&secret),
	))
	if err := form.Run(); err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("no credential entered")
	}

	if err := credential.Set(key, secret); err != nil {
		return err
	}
	fmt.Println("Credential stored.")
	return nil
}

// buildBackend constructs the configured mail store and the identity
// provider that names the signed-in address.
func buildBackend(
	cfg *model.AppConfig,
	logger *zap.Logger,
) (mail.Store, identity.Provider, error) {
	switch cfg.Backend {
	case model.BackendHTTP:
		token, err := credential.Get(credential.KeySessionToken)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"no session token stored, run `webmail login` first: %w", err,
			)
		}
		logger.Info("using http backend", zap.String("base_url", cfg.HTTP.BaseURL))
		return httpapi.NewClient(cfg.HTTP.BaseURL, token),
			identity.NewTokenIdentity(token), nil

	case model.BackendIMAP:
		password, err := credential.Get(credential.KeyIMAPPassword)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"no IMAP password stored, run `webmail login` first: %w", err,
			)
		}
		logger.Info("using imap backend",
			zap.String("host", cfg.IMAP.Host),
			zap.String("user", cfg.IMAP.Username),
		)
		return imapgw.New(cfg.IMAP, cfg.SMTP, password),
			identity.StaticIdentity(cfg.IMAP.Username), nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
