package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frankonly/uptree/api"
	"github.com/frankonly/uptree/crypto"
	"github.com/frankonly/uptree/data"
	"github.com/frankonly/uptree/log"
)

var (
	tls      = flag.Bool("tls", false, "Connection uses TLS if true, else plain TCP")
	certFile = flag.String("cert_file", "", "The TLS cert file")
	keyFile  = flag.String("key_file", "", "The TLS key file")
	port     = flag.Int("port", 10000, "The server port")
)

func main() {
	flag.Parse()

	logger := log.New()
	defer func() { _ = logger.Sync() }()

	apiServer := api.NewServer(crypto.SHA256{}, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("localhost:%d", *port),
		Handler: apiServer,
	}

	go func() {
		var err error
		if *tls {
			if *certFile == "" {
				*certFile = data.Path("x509/server_cert.pem")
			}
			if *keyFile == "" {
				*keyFile = data.Path("x509/server_key.pem")
			}
			err = httpServer.ListenAndServeTLS(*certFile, *keyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalw("failed to serve", "error", err)
		}
	}()

	logger.Infow("serving", "port", *port, "tls", *tls)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorw("failed to shut down gracefully", "error", err)
	}
}
