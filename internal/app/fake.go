package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/homeyum/yum/internal/fakeapi"
	"github.com/homeyum/yum/internal/logging"
)

const (
	fakeToken     = "fake-token"
	fakeSearchKey = "fake-key"
)

// fakeBackend serves fakeapi on a loopback port.
type fakeBackend struct {
	srv *http.Server
	url string
}

func startFake(logger *slog.Logger) (*fakeBackend, error) {
	fake := fakeapi.New(fakeapi.Options{
		Token:         fakeToken,
		Videos:        fakeapi.SampleVideos(40),
		SearchResults: fakeapi.SampleSearch(90),
		Logger:        logger,
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for fake backend: %w", err)
	}
	srv := &http.Server{Handler: fake.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("fake backend stopped", logging.Error(err))
		}
	}()
	url := "http://" + ln.Addr().String()
	logger.Info("fake backend listening", logging.String("url", url))
	return &fakeBackend{srv: srv, url: url}, nil
}

func (f *fakeBackend) URL() string { return f.url }

func (f *fakeBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return f.srv.Shutdown(ctx)
}
