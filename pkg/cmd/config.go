package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/tjake/cert-bundle-maker/pkg/provision"
	"github.com/tjake/cert-bundle-maker/pkg/webservice"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the default configuration",
	Long: `Displays the default YAML configuration as a starting point for a
configuration file`,
	Run: func(cmd *cobra.Command, args []string) {
		config := struct {
			Debug      bool               `yaml:"debug"`
			LogDir     string             `yaml:"log-dir"`
			Provision  *provision.Config  `yaml:"provision"`
			WebService *webservice.Config `yaml:"webservice"`
		}{
			LogDir:     "bundles/log",
			Provision:  provision.DefaultConfig(),
			WebService: webservice.DefaultConfig(),
		}
		data, err := yaml.Marshal(config)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(data))
	},
}
