// Command boardctl inspects archived boards and runs headless sessions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/config"
	"SyncBoard/internal/export"
	"SyncBoard/internal/state"
	"SyncBoard/internal/store"
)

const usage = `usage: boardctl [-config file] <command> [args]

commands:
  list                   list archived sessions
  dump [-json] <id>      print the log of a session
  export <id> <file>     write a session to .png or .pdf
  delete <id>            remove a session
  simulate [flags]       run peers over an in-memory room
`

func main() {
	if err := mainInner(); err != nil {
		logrus.WithError(err).Error("boardctl failed")
		os.Exit(1)
	}
}

func mainInner() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "simulate" {
		return simulate(cfg, log, args)
	}

	s, err := store.Open(cfg.Archive.Path, log)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()

	switch cmd {
	case "list":
		return list(ctx, s)
	case "dump":
		return dump(ctx, s, args)
	case "export":
		if len(args) != 2 {
			return errors.New("export needs a session id and an output file")
		}
		return exportSession(ctx, s, args[0], args[1], cfg.Board.Background)
	case "delete":
		if len(args) != 1 {
			return errors.New("delete needs a session id")
		}
		return s.DeleteSession(ctx, args[0])
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func list(ctx context.Context, s *store.Store) error {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROOM\tPEER\tSAVED\tEVENTS")
	for _, sess := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", sess.ID, sess.Room, sess.Peer, sess.SavedAt.Local().Format("2006-01-02 15:04:05"), sess.Events)
	}
	return w.Flush()
}

func dump(ctx context.Context, s *store.Store, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print JSON instead of Go syntax")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("dump needs a session id")
	}
	events, err := s.LoadEvents(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}
	litter.Config.HidePrivateFields = false
	litter.Dump(events)
	return nil
}

func exportSession(ctx context.Context, s *store.Store, id, out, background string) error {
	events, err := s.LoadEvents(ctx, id)
	if err != nil {
		return err
	}
	snapshot := make([]state.StrokeEvent, 0, len(events))
	for _, ev := range events {
		if ev.Visible {
			snapshot = append(snapshot, ev)
		}
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".pdf":
		err = export.SavePDF(out, snapshot, background)
	case ".png":
		err = export.SavePNG(out, snapshot, background)
	default:
		return fmt.Errorf("cannot export to %q, use .png or .pdf", out)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d events to %s\n", len(snapshot), out)
	return nil
}
