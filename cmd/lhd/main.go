// lhd is the liquid-handler controller daemon. It loads the configuration,
// opens the host, pump and router ports, runs the device startup handshakes
// and then serves host messages until the process is killed.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jt05610/liquidhandler/comm/serial"
	"github.com/jt05610/liquidhandler/config"
	"github.com/jt05610/liquidhandler/controller"
	"github.com/jt05610/liquidhandler/pump"
	"github.com/jt05610/liquidhandler/router"
)

const (
	defaultConfigPath = "./config.toml"

	applicationBaud = 9600
	pumpBaud        = 9600
	routerBaud      = 115200
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %s", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// .env is optional; it lets the pty harness point CONFIG_PATH at a
	// scratch configuration without flags.
	_ = godotenv.Load()
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.String("path", path), zap.Error(err))
	}

	if ports, err := serial.ListPorts(); err == nil {
		logger.Debug("available ports", zap.Strings("ports", ports))
	}

	app, err := serial.Open(cfg.ApplicationPortPath, applicationBaud, logger)
	if err != nil {
		logger.Fatal("failed to open application port",
			zap.String("path", cfg.ApplicationPortPath), zap.Error(err))
	}
	defer app.Close()
	pumpPort, err := serial.Open(cfg.PumpPortPath, pumpBaud, logger)
	if err != nil {
		logger.Fatal("failed to open pump port",
			zap.String("path", cfg.PumpPortPath), zap.Error(err))
	}
	defer pumpPort.Close()
	routerPort, err := serial.Open(cfg.RouterPortPath, routerBaud, logger)
	if err != nil {
		logger.Fatal("failed to open router port",
			zap.String("path", cfg.RouterPortPath), zap.Error(err))
	}
	defer routerPort.Close()

	r := router.New(routerPort, logger)
	p := pump.New(pumpPort, logger)
	r.Home()
	p.Init()

	logger.Info("ready", zap.String("port", cfg.ApplicationPortPath))
	controller.New(cfg, app, r, p, logger).Run()
}
