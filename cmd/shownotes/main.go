package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"shownotes/internal/config"
	"shownotes/internal/library"
	"shownotes/internal/notes"
	"shownotes/internal/server"
	"shownotes/internal/shows"
)

var opts struct {
	Conf    string `short:"c" long:"conf" env:"SHOWNOTES_CONF" description:"config file (yml)"`
	Listen  string `short:"l" long:"listen" env:"SHOWNOTES_LISTEN" description:"listen address"`
	Content string `long:"content" env:"SHOWNOTES_CONTENT" description:"directory with episode notes"`
	Audio   string `long:"audio" env:"SHOWNOTES_AUDIO" description:"directory with episode audio files"`
	Warm    bool   `long:"warm" description:"load all episodes before serving"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"show debug info"`
}

func main() {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		p.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	setupLog(opts.Dbg)

	conf := config.Default()
	if opts.Conf != "" {
		var err error
		if conf, err = config.Load(opts.Conf); err != nil {
			lgr.Fatalf("[ERROR] can't load config %s, %v", opts.Conf, err)
		}
	}
	if opts.Listen != "" {
		conf.Server.Listen = opts.Listen
	}
	if opts.Content != "" {
		conf.Content.Dir = opts.Content
	}
	if opts.Audio != "" {
		conf.Audio.Dir = opts.Audio
	}

	contentDir, err := config.ResolveDir(conf.Content.Dir)
	if err != nil {
		lgr.Fatalf("[ERROR] can't resolve content directory %s, %v", conf.Content.Dir, err)
	}

	libOpts := []library.Option{library.WithLogger(lgr.Default())}
	if conf.Audio.Dir != "" {
		audioDir, err := config.ResolveDir(conf.Audio.Dir)
		if err != nil {
			lgr.Fatalf("[ERROR] can't resolve audio directory %s, %v", conf.Audio.Dir, err)
		}
		libOpts = append(libOpts, library.WithAudioDir(audioDir))
	}

	parserOpts := []notes.Option{notes.WithNotesPrefix(conf.Content.NotesPrefix)}
	if conf.Content.SafeMode {
		parserOpts = append(parserOpts, notes.WithSafeMode())
	}

	lib := library.NewLibrary(library.NewDirReader(contentDir, conf.Content.Pattern), notes.NewParser(parserOpts...), libOpts...)
	svc := shows.NewService(lib)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Warm {
		episodes, err := lib.Load(ctx)
		if err != nil {
			lgr.Fatalf("[ERROR] can't load episodes from %s, %v", contentDir, err)
		}
		lgr.Printf("[INFO] warmed cache with %d episodes", len(episodes))
	}

	httpServer := &http.Server{
		Addr:              conf.Server.Listen,
		Handler:           server.New(svc, lgr.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      conf.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Printf("[WARN] graceful shutdown error: %v", err)
		}
	}()

	lgr.Printf("[INFO] listening on %s (notes directory: %s)", conf.Server.Listen, contentDir)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lgr.Fatalf("[ERROR] http server error: %v", err)
	}
	lgr.Printf("[INFO] shutdown complete")
}

func setupLog(dbg bool) {
	if dbg {
		lgr.Setup(lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces)
		return
	}
	lgr.Setup(lgr.Msec, lgr.LevelBraces)
}
