// Command sehttpd is a single-threaded, epoll-driven static file server —
// the entrypoint wiring internal/config into internal/reactor, the Go
// realization of original_source/src/mainloop.c's main().
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hfyeh/sehttpd/internal/config"
	"github.com/hfyeh/sehttpd/internal/reactor"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Go already turns a write to a closed socket into an EPIPE error
	// instead of raising SIGPIPE, so there is no signal handler to install
	// here the way original_source's main() does with sigaction(SIGPIPE,
	// SIG_IGN, ...).

	r, err := reactor.New(cfg.Port, cfg.WebRoot, log)
	if err != nil {
		log.Error("failed to start reactor", slog.Any("err", err))
		os.Exit(1)
	}
	defer r.Close()

	log.Info("web server started", slog.Int("port", cfg.Port), slog.String("web_root", cfg.WebRoot))

	if err := r.Run(); err != nil {
		log.Error("reactor exited", slog.Any("err", err))
		os.Exit(1)
	}
}
