package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/viant/fitbit-mcp/auth"
	"github.com/viant/fitbit-mcp/auth/store"
	"github.com/viant/fitbit-mcp/config"
	"github.com/viant/fitbit-mcp/fitbit"
	"github.com/viant/fitbit-mcp/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	options := &config.Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx := context.Background()
	if err := options.Init(ctx); err != nil {
		return err
	}
	if err := options.Validate(); err != nil {
		return err
	}
	oauthConfig, err := options.OAuthConfig(ctx)
	if err != nil {
		return err
	}
	tokenStore, err := store.New(ctx, options.StoreConfig())
	if err != nil {
		return err
	}
	exchanger := auth.NewExchanger(oauthConfig, tokenStore)
	authService := auth.NewService(tokenStore, exchanger)
	fitbitClient := fitbit.New(authService)

	var serverOptions = []server.Option{
		server.WithAddr(options.Addr),
		server.WithCallbackPath(options.CallbackPath),
	}
	if options.AuthSecret != "" {
		serverOptions = append(serverOptions, server.WithAuthSecret([]byte(options.AuthSecret)))
	}
	srv, err := server.New(authService, fitbitClient, serverOptions...)
	if err != nil {
		return err
	}
	switch options.Transport {
	case "stdio":
		return srv.Stdio(ctx).ListenAndServe()
	case "streamable":
		httpServer := srv.HTTP(ctx, options.Addr)
		log.Printf("fitbit-mcp listening on %v", httpServer.Addr)
		return httpServer.ListenAndServe()
	default:
		return fmt.Errorf("unsupported transport: %v", options.Transport)
	}
}
