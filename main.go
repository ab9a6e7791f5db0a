package main

import (
	"github.com/tjake/cert-bundle-maker/pkg/cmd"
	"github.com/tjake/cert-bundle-maker/pkg/prompt"

	"github.com/tjake/cert-bundle-maker/pkg/app"
)

func main() {
	prompt.PrintBanner(app.Version)
	cmd.Execute()
}
