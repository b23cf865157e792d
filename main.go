package main

import (
	"context"
	"os"
	"time"

	"github.com/JoshuaDoes/logger"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"

	"assaultwing/client"
	"assaultwing/client/view"
	"assaultwing/server"
	"assaultwing/transport"
	"assaultwing/utils"
)

var log = logger.NewLogger("aw", 2)

const configFile = "config.toml"

func readConfig() *utils.Config {
	cfg, err := utils.ReadTOML(configFile)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("no ", configFile, ", using defaults")
		return utils.DefaultConfig()
	}
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func dial(ctx context.Context, cfg *utils.Config) *transport.Websocket {
	url := "ws://" + cfg.Net.Address
	c, err := transport.Dial(ctx, url, cfg.Net.QueueSize)
	if err == nil {
		return c
	}
	log.Warn("Encountered err: ", err, ". Trying to spin up server manually")

	// Try to spin up the server if we fail to connect.
	args := []string{"server", cfg.Net.Address}
	if _, err := os.Stat(configFile); err == nil {
		args = append(args, configFile)
	}
	go func() {
		if err := server.Run(args); err != nil {
			log.Fatal(err)
		}
		log.Fatal("server shutdown")
	}()

	for i := 0; i < 20; i++ {
		time.Sleep(50 * time.Millisecond)
		if c, err = transport.Dial(ctx, url, cfg.Net.QueueSize); err == nil {
			return c
		}
	}
	log.Fatal(err)
	return nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "server" {
		if err := server.Run(os.Args[1:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	var name, ship string
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	ship = "windlord"
	if len(os.Args) > 2 {
		ship = os.Args[2]
	}

	cfg := readConfig()
	resolutionConfig := cfg.UI.Resolution
	log.Debug("resolution ", resolutionConfig.X, "x", resolutionConfig.Y)
	ebiten.SetWindowSize(resolutionConfig.X, resolutionConfig.Y)
	ebiten.SetWindowTitle("Assault Wing")

	conn := dial(context.Background(), cfg)
	defer conn.Close()
	c, err := client.New(cfg, conn, name, ship)
	if err != nil {
		log.Fatal(err)
	}

	game := view.NewGame(c, view.LoadAssets())
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, view.ErrQuit) {
		log.Fatal(err)
	}
}
