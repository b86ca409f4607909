package main

import (
	"go.uber.org/fx"

	"github.com/oldkaseb/najbot/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
