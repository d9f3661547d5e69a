// Command notesctl opera o storage local da extensão Floating Notes:
// backup e restauração, ativação de licença e consulta de gates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
	"github.com/willjrcristo/floating-notes-license/internal/extension"
)

type cliConfig struct {
	ServerURL   string `env:"NOTES_LICENSE_SERVER" envDefault:"http://localhost:8080"`
	StorageFile string `env:"NOTES_STORAGE_FILE" envDefault:"floating-notes-storage.json"`
	ExportedBy  string `env:"NOTES_EXPORTED_BY" envDefault:"notesctl"`
}

const usage = `uso: notesctl [flags] <comando> [args]

comandos:
  backup [-dir DIR]                  exporta notas e configurações
  restore ARQUIVO                    restaura um backup (mantém a licença atual)
  license activate|status|refresh|deactivate [CHAVE]
  feature NOME                       informa se a funcionalidade está liberada
  message JSON                       despacha uma mensagem {"action": ...}
`

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Não foi possível ler o .env", "error", err)
	}
	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("Configuração inválida", "error", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("notesctl", flag.ExitOnError)
	fs.StringVar(&cfg.StorageFile, "storage", cfg.StorageFile, "arquivo de storage da extensão")
	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "URL da API de licenças")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage); fs.PrintDefaults() }
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, fs.Args(), os.Stdout); err != nil {
		slog.Error("Falha", "comando", fs.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliConfig, args []string, out io.Writer) error {
	storage, err := extension.NewFileStorage(cfg.StorageFile)
	if err != nil {
		return err
	}
	licenses := extension.NewLicenseManager(storage, extension.NewHTTPLicenseClient(cfg.ServerURL))
	if err := licenses.Init(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "backup":
		return runBackup(ctx, storage, licenses, cfg.ExportedBy, args[1:], out)
	case "restore":
		if len(args) < 2 {
			return errors.New("informe o arquivo de backup")
		}
		return runRestore(ctx, storage, cfg.ExportedBy, args[1], out)
	case "license":
		return runLicense(ctx, licenses, args[1:], out)
	case "feature":
		if len(args) < 2 {
			return errors.New("informe o nome da funcionalidade")
		}
		f := domain.Feature(args[1])
		fmt.Fprintf(out, "%s: liberada=%t (requer pro=%t)\n", f, licenses.CanUseFeature(f), f.RequiresPro())
		return nil
	case "message":
		if len(args) < 2 {
			return errors.New("informe a mensagem JSON")
		}
		fmt.Fprintln(out, string(newRouter(out).DispatchJSON(ctx, []byte(args[1]))))
		return nil
	}
	return fmt.Errorf("comando desconhecido: %s", args[0])
}

func runBackup(ctx context.Context, storage extension.Storage, licenses *extension.LicenseManager, exportedBy string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dir := fs.String("dir", ".", "diretório de destino")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !licenses.CanUseFeature(domain.FeatureBackup) {
		return errors.New("backup exige licença Pro ativa")
	}

	path := filepath.Join(*dir, extension.BackupFilename(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := extension.NewBackupManager(storage, exportedBy).Export(ctx, f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

func runRestore(ctx context.Context, storage extension.Storage, exportedBy, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := extension.NewBackupManager(storage, exportedBy).Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "notas: %d, configurações: %d, licença preservada: %t\n",
		res.NotesRestored, res.SettingsRestored, res.LicensePreserved)
	return nil
}

func runLicense(ctx context.Context, licenses *extension.LicenseManager, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("informe activate, status, refresh ou deactivate")
	}
	switch args[0] {
	case "activate":
		if len(args) < 2 {
			return errors.New("informe a chave")
		}
		if _, err := licenses.Activate(ctx, args[1]); err != nil {
			return err
		}
	case "refresh":
		if _, err := licenses.Refresh(ctx); err != nil {
			return err
		}
	case "deactivate":
		if err := licenses.Deactivate(ctx); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("subcomando desconhecido: %s", args[0])
	}

	key := licenses.LicenseKey()
	if key == "" {
		key = "(nenhuma)"
	}
	expiry := "sem expiração"
	if exp := licenses.ExpiresAt(); exp != nil {
		expiry = exp.Format(time.DateOnly)
	}
	fmt.Fprintf(out, "chave: %s\npro: %t\nexpira: %s\n", key, licenses.IsProUser(), expiry)
	return nil
}

// newRouter liga as ações da extensão a saídas de terminal.
func newRouter(out io.Writer) *extension.Router {
	r := extension.NewRouter()
	for _, a := range []extension.Action{extension.ActionShowOverlay, extension.ActionTogglePanel, extension.ActionOpenWorkspace} {
		r.Handle(a, func(context.Context) error {
			_, err := fmt.Fprintf(out, "ação %s executada\n", a)
			return err
		})
	}
	return r
}
