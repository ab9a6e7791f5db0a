package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tjake/cert-bundle-maker/pkg/app"
)

var (
	App        *app.App
	InitParams *app.AppInitParams
)

var rootCmd = &cobra.Command{
	Use:   app.Name,
	Short: "Private CA credential bundle maker",
	Long: `Issues per-tenant TLS credentials from a private certificate
authority and packages them into distributable credential bundles.
Every artifact is written exactly once and reused on subsequent runs,
so an interrupted provisioning run resumes where it stopped.`,
	TraverseChildren: true,
}

func init() {

	cobra.OnInitialize(func() {
		App = app.NewApp()
	})

	InitParams = &app.AppInitParams{}

	rootCmd.PersistentFlags().BoolVarP(&InitParams.Debug,
		"debug", "d", false, "Enable debug mode")
	rootCmd.PersistentFlags().StringVarP(&InitParams.ConfigDir,
		"config-dir", "", "", "Configuration file directory")
	rootCmd.PersistentFlags().StringVarP(&InitParams.BaseDir,
		"base-dir", "", "", "Base directory where bundles are written (default \"bundles\")")
	rootCmd.PersistentFlags().StringVarP(&InitParams.LogDir,
		"log-dir", "", "", "Log directory (default \"<base-dir>/log\")")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
	return nil
}
