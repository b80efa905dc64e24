package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"SyncBoard/internal/board"
	"SyncBoard/internal/config"
	"SyncBoard/internal/export"
	boardnet "SyncBoard/internal/net"
	"SyncBoard/internal/render"
	"SyncBoard/internal/state"
)

// simulate has several peers scribble concurrently over a shuffling
// in-memory room, brings in a late joiner and reports whether the boards
// agree.
func simulate(cfg config.File, log logrus.FieldLogger, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	peers := fs.Int("peers", 3, "number of drawing peers")
	strokes := fs.Int("strokes", 10, "strokes per peer")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	drop := fs.Float64("drop", 0, "fraction of signals to lose")
	out := fs.String("out", "", "write the late joiner's board to this .png or .pdf")
	canvas := fs.String("canvas", "", "write the first peer's live canvas to this .png")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bcfg := cfg.BoardConfig(log)
	bcfg.HistorySettle = 500 * time.Millisecond

	bus := boardnet.NewBus(boardnet.WithShuffle(*seed), boardnet.WithDropRate(*drop))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx, 5*time.Millisecond)

	// the first peer paints a live canvas, the others run headless
	raster := render.NewRaster(640, 480, bcfg.Background)
	engines := make([]*board.Engine, *peers)
	for i := range engines {
		var r board.Renderer
		if i == 0 {
			r = raster
		}
		engines[i] = board.New(bcfg, bus.Join(fmt.Sprintf("peer-%d", i)), r)
		engines[i].Start()
	}
	quiet := func() { time.Sleep(3*bcfg.DebounceWindow + 50*time.Millisecond) }
	quiet()

	rng := rand.New(rand.NewSource(*seed))
	for s := 0; s < *strokes; s++ {
		for _, e := range engines {
			scribble(e, rng)
		}
		if rng.Intn(4) == 0 {
			engines[rng.Intn(len(engines))].Undo()
		}
	}
	quiet()

	synced := make(chan string, 1)
	paths := render.NewVectorPath()
	joiner := board.New(bcfg, bus.Join("late"), paths)
	joiner.OnHistorySynced(func(source string, _ int) { synced <- source })
	joiner.Start()
	select {
	case source := <-synced:
		fmt.Printf("late joiner synced from %s\n", source)
	case <-time.After(5 * time.Second):
		fmt.Println("late joiner got no history")
	}

	all := append(append([]*board.Engine(nil), engines...), joiner)
	ref := engines[0].Snapshot()
	for _, e := range all[1:] {
		verdict := "agrees"
		if !sameGroups(ref, e.Snapshot()) {
			verdict = "DIVERGED"
		}
		fmt.Printf("%-8s %5d entries %5d visible  %s\n", e.LocalID(), len(e.Entries()), len(e.Snapshot()), verdict)
	}

	for _, e := range all {
		e.Close()
	}
	if *canvas != "" {
		if err := raster.SavePNG(*canvas); err != nil {
			return err
		}
	}
	if *out == "" {
		return nil
	}
	if strings.HasSuffix(strings.ToLower(*out), ".pdf") {
		return export.SavePathsPDF(*out, paths.Paths(), bcfg.Background)
	}
	return export.SavePNG(*out, joiner.Snapshot(), bcfg.Background)
}

func scribble(e *board.Engine, rng *rand.Rand) {
	p := state.Point{X: float64(rng.Intn(600)), Y: float64(rng.Intn(400))}
	e.SetPen(board.Palette[rng.Intn(len(board.Palette))], float64(1+rng.Intn(6)))
	e.Capture(board.CaptureEvent{Phase: state.PhaseStart, Point: p})
	for i := rng.Intn(12); i > 0; i-- {
		p.X += float64(rng.Intn(21) - 10)
		p.Y += float64(rng.Intn(21) - 10)
		e.Capture(board.CaptureEvent{Phase: state.PhaseDrag, Point: p})
	}
	e.Capture(board.CaptureEvent{Phase: state.PhaseEnd, Point: p})
}

// sameGroups compares the visible events of two boards regardless of the
// order in which they arrived.
func sameGroups(a, b []state.StrokeEvent) bool {
	if len(a) != len(b) {
		return false
	}
	count := make(map[state.StrokeEvent]int, len(a))
	for _, ev := range a {
		count[ev]++
	}
	for _, ev := range b {
		if count[ev] == 0 {
			return false
		}
		count[ev]--
	}
	return true
}
