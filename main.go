package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"SyncBoard/internal/board"
	"SyncBoard/internal/config"
	boardnet "SyncBoard/internal/net"
	"SyncBoard/internal/store"
	"SyncBoard/internal/ui"
)

func main() {
	if err := mainInner(); err != nil {
		logrus.WithError(err).Error("syncboard failed")
		os.Exit(1)
	}
}

func mainInner() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	archive := flag.Bool("archive", false, "archive the board to SQLite when the window closes")
	discover := flag.Bool("discover", false, "join the first relay found on the LAN instead of hosting")
	room := flag.String("room", "", "room to host (defaults to the config's relay.room)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	if *archive {
		cfg.Archive.Enabled = true
	}
	if *room != "" {
		cfg.Relay.Room = *room
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var url, shareLink string
	switch {
	case flag.NArg() > 0 && strings.HasPrefix(flag.Arg(0), boardnet.Scheme):
		log.Info("starting as client")
		url, err = boardnet.ParseShareLink(flag.Arg(0))
	case *discover:
		log.Info("looking for a relay on the LAN")
		url, err = discoverRelay()
	default:
		log.Info("starting as host")
		url, shareLink, err = startHost(ctx, cfg, log)
	}
	if err != nil {
		return err
	}

	tr, err := dialRelay(ctx, url, log)
	if err != nil {
		return err
	}
	defer tr.Close()

	a := app.New()
	bw := ui.NewBoardWidget(cfg.Board.Background)
	engine := board.New(cfg.BoardConfig(log), tr, bw)
	tr.Listen(ctx)
	engine.Start()

	ui.RunApp(a, engine, bw, ui.Options{
		Title:      "SyncBoard",
		ShareLink:  shareLink,
		Pen:        board.Pen{Color: cfg.Board.PenColor, Width: cfg.Board.PenWidth},
		Background: cfg.Board.Background,
		Logger:     log,
	})
	engine.Close()

	if cfg.Archive.Enabled {
		return archiveSession(ctx, cfg, log, engine)
	}
	return nil
}

// startHost runs the relay in-process, advertises it and returns the local
// endpoint plus the link to share.
func startHost(ctx context.Context, cfg config.File, log logrus.FieldLogger) (string, string, error) {
	_, portStr, err := net.SplitHostPort(cfg.Relay.Addr)
	if err != nil {
		return "", "", fmt.Errorf("bad relay address %q: %w", cfg.Relay.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", "", fmt.Errorf("bad relay port %q: %w", portStr, err)
	}

	relay := boardnet.NewRelay(cfg.RelayConfig(log))
	go func() {
		if err := relay.ListenAndServe(ctx); err != nil {
			log.WithError(err).Error("relay stopped")
		}
	}()

	if cfg.Relay.Advertise {
		srv, err := boardnet.Advertise(port, cfg.Relay.Room)
		if err != nil {
			log.WithError(err).Warn("mDNS advertisement failed, share the link instead")
		} else {
			go func() {
				<-ctx.Done()
				_ = srv.Shutdown()
			}()
		}
	}

	link := boardnet.ShareLink(boardnet.GetOutgoingIP(), port, cfg.Relay.Room)
	log.WithField("link", link).Info("hosting board")
	url, err := boardnet.ParseShareLink(boardnet.ShareLink("127.0.0.1", port, cfg.Relay.Room))
	return url, link, err
}

func discoverRelay() (string, error) {
	links, err := boardnet.Discover(3 * time.Second)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", errors.New("no relay found on the LAN")
	}
	return boardnet.ParseShareLink(links[0])
}

// dialRelay retries for a moment so a host does not race its own relay.
func dialRelay(ctx context.Context, url string, log logrus.FieldLogger) (*boardnet.WSTransport, error) {
	wsCfg := boardnet.DefaultWSConfig()
	wsCfg.URL = url
	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		tr, err := boardnet.DialWS(ctx, wsCfg)
		if err == nil {
			log.WithField("peer", tr.LocalID()).Info("connected to relay")
			return tr, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

func archiveSession(ctx context.Context, cfg config.File, log logrus.FieldLogger, engine *board.Engine) error {
	s, err := store.Open(cfg.Archive.Path, log)
	if err != nil {
		return err
	}
	defer s.Close()
	sess, err := s.SaveSession(ctx, cfg.Relay.Room, engine.LocalID(), engine.Entries())
	if err != nil {
		return err
	}
	fmt.Printf("archived session %s (%d events) to %s\n", sess.ID, sess.Events, cfg.Archive.Path)
	return nil
}
