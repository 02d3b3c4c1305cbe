package main

import (
	"github.com/lgsd123456/MiAudioPlay/internal/app"
	"github.com/lgsd123456/MiAudioPlay/internal/config"
)

func main() {
	cfg := config.Load()
	app := app.New(cfg)
	app.Run()
}
