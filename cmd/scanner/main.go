// Command scanner is a terminal scanning station. It drives the same scan and
// query pipelines as the browser pages against a running scanlog API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"scanlog/infrastructure/apiclient"
	"scanlog/infrastructure/config"
	"scanlog/infrastructure/logging"
)

const usage = `usage: scanner <command> [flags]

commands:
  scan    read barcodes from stdin and record them
  list    show one page of recorded scans
  export  download the filtered records as xlsx
  clear   delete every recorded scan
`

// station holds what every subcommand needs.
type station struct {
	cfg *config.Config
	api *apiclient.Client
	in  io.Reader
	out io.Writer
	loc *time.Location
	now func() time.Time
	log *slog.Logger
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if strings.TrimSpace(cfg.Logging.File) != "" {
		sink, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
		if err != nil {
			log.Fatalf("setup logging: %v", err)
		}
		defer sink.Close()
	} else {
		// stdout belongs to the operator.
		slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)))
	}

	clientID := uuid.NewString()
	st := &station{
		cfg: cfg,
		api: apiclient.New(cfg.API.BaseURL,
			apiclient.WithTimeout(cfg.API.Timeout),
			apiclient.WithClientID(clientID),
		),
		in:  os.Stdin,
		out: os.Stdout,
		loc: cfg.Location(),
		now: time.Now,
		log: slog.Default().With("client_id", clientID),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "scanner: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("unknown command")

func (s *station) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "scan":
		return s.runScan(ctx, args)
	case "list":
		return s.runList(ctx, args)
	case "export":
		return s.runExport(ctx, args)
	case "clear":
		return s.runClear(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(s.out, usage)
		return nil
	}
	return errUsage
}
