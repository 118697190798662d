package main

import (
	"github.com/restomesh/kds-sync/internal/app"
	"github.com/restomesh/kds-sync/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
