package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"connext-backend/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("connext exited")
		os.Exit(1)
	}
}
