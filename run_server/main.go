package main

import (
	"os"

	"github.com/JoshuaDoes/logger"

	"assaultwing/server"
)

func main() {
	if err := server.Run(os.Args); err != nil {
		logger.NewLogger("aw", 2).Fatal(err)
	}
}
