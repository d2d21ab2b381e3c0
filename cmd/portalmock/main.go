// portalmock serves the fake portal backend for local development.
//
// Resources and initial data are read from the yaml config file (-config).
// The server restarts with the new config when the file is modified.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/opst/sciportal/pkg/backend/fake"
	"github.com/opst/sciportal/pkg/buildtime"
	"github.com/opst/sciportal/pkg/utils/filewatch"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config of resources. Empty serves built-in sample resources.")
	addr := flag.String("addr", ":8000", "address to listen")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	tokenFor := flag.String("token-for", "", "print an access token for the user id, and quit")
	version := flag.Bool("version", false, "show version and quit")
	flag.Parse()

	if *version {
		fmt.Println(buildtime.VersionString())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	if *tokenFor != "" {
		conf, err := loadConfig(*configPath)
		if err != nil {
			log.Fatalf("can not read configuration: %s", err)
		}
		token, err := fake.New(conf).IssueToken(*tokenFor, "", 24*time.Hour)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(token)
		return
	}

	for {
		restart, err := serve(ctx, *configPath, *addr, *loglevel, *pcert, *pkey)
		if err != nil {
			log.Fatal(err)
		}
		if !restart {
			return
		}
		log.Println("config is updated. restarting server.")
	}
}

func loadConfig(path string) (fake.Config, error) {
	if path == "" {
		return fake.DefaultConfig(), nil
	}
	return fake.LoadConfig(path)
}

// serve runs the server until ctx is done or the config file is modified.
//
// It reports whether the server should restart.
func serve(ctx context.Context, configPath, addr, loglevel, cert, key string) (bool, error) {
	conf, err := loadConfig(configPath)
	if err != nil {
		return false, fmt.Errorf("can not read configuration: %w", err)
	}

	wctx, stop := ctx, context.CancelFunc(func() {})
	if configPath != "" {
		c, cancel, err := filewatch.UntilModified(ctx, configPath)
		if err != nil {
			return false, fmt.Errorf("can not watch configuration: %w", err)
		}
		wctx, stop = c, cancel
	}
	defer stop()

	server := fake.New(conf, fake.WithLogLevel(loglevel), fake.WithRequestLog())
	context.AfterFunc(wctx, func() {
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(graceful); err != nil {
			log.Printf("error on shutdown: %s", err)
		}
	})

	log.Printf("serving API %s on %s", conf.Version, addr)
	if conf.Secret != "" {
		log.Printf("authentication is enabled. issue tokens with POST /api/%s/accounts/login/", conf.Version)
	}
	if cert != "" && key != "" {
		err = server.StartTLS(addr, cert, key)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		return false, err
	}
	return errors.Is(context.Cause(wctx), filewatch.ErrModified), nil
}
