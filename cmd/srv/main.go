package main

import (
	"context"
	"os"
)

var server srv

func main() {
	server.ctx = context.Background()
	server.loadConfig()
	server.loadLogger()
	server.loadEngine()
	server.loadApp()

	if err := server.app.Run(os.Args); err != nil {
		panic(err)
	}
}
