package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var servePort int

func init() {
	serveCmd.PersistentFlags().IntVar(&servePort,
		"port", 0, "HTTP port to serve bundles on (default 8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve assembled credential bundles over HTTP",
	Long: `Publishes the bundle directory with a static file server so tenants
can download their credential bundle archives`,
	Run: func(cmd *cobra.Command, args []string) {

		if _, err := App.Init(InitParams); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		if servePort > 0 {
			App.WebService.Port = servePort
		}
		serveBundles()
	},
}

// Runs the web server until SIGINT or SIGTERM
func serveBundles() {

	sigChan := make(chan os.Signal, 1)

	webserver := App.NewWebServer()
	go webserver.Run()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	close(sigChan)

	webserver.Shutdown()
	App.Logger.Info("Graceful shutdown complete")
}
