package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"

	"SyncBoard/internal/config"
	boardnet "SyncBoard/internal/net"
)

func main() {
	if err := mainInner(); err != nil {
		logrus.WithError(err).Error("relay failed")
		os.Exit(1)
	}
}

func mainInner() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	addr := flag.String("addr", "", "address to listen on (overrides relay.addr)")
	room := flag.String("room", "", "room to advertise (overrides relay.room)")
	noMDNS := flag.Bool("no-mdns", false, "do not advertise on the LAN")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Relay.Addr = *addr
	}
	if *room != "" {
		cfg.Relay.Room = *room
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Relay.Advertise && !*noMDNS {
		_, portStr, err := net.SplitHostPort(cfg.Relay.Addr)
		if err != nil {
			return fmt.Errorf("bad relay address %q: %w", cfg.Relay.Addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("bad relay port %q: %w", portStr, err)
		}
		srv, err := boardnet.Advertise(port, cfg.Relay.Room)
		if err != nil {
			log.WithError(err).Warn("mDNS advertisement failed")
		} else {
			defer srv.Shutdown()
		}
		log.WithField("link", boardnet.ShareLink(boardnet.GetOutgoingIP(), port, cfg.Relay.Room)).Info("share link")
	}

	err = boardnet.NewRelay(cfg.RelayConfig(log)).ListenAndServe(ctx)
	log.Info("relay stopped")
	return err
}
