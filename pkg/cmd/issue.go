package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tjake/cert-bundle-maker/pkg/prompt"
	"github.com/tjake/cert-bundle-maker/pkg/provision"
)

var (
	seedDir   string
	serveFlag bool
)

func init() {
	issueCmd.PersistentFlags().StringVar(&seedDir,
		"seed-ca", "", "Directory with existing certificate authority material to seed from")
	issueCmd.PersistentFlags().BoolVar(&serveFlag,
		"serve", false, "Publish the bundle directory over HTTP after issuing")
	rootCmd.AddCommand(issueCmd)
}

var issueCmd = &cobra.Command{
	Use:   "issue [tenant]...",
	Short: "Issue tenant credential bundles",
	Long: `Ensures the root certificate authority, issues TLS credentials for
the named tenants (or every configured tenant) and assembles their
credential bundle archives.`,
	Run: func(cmd *cobra.Command, args []string) {

		if _, err := App.Init(InitParams); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		if seedDir != "" {
			App.Provision.SeedDir = seedDir
		}
		gatherPasswords(args)

		driver, err := App.NewDriver()
		if err != nil {
			App.Logger.Error(err)
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		if err := driver.Run(args); err != nil {
			App.Logger.Error(err)
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		if serveFlag {
			serveBundles()
		}
	},
}

// Fills in the passwords the configuration file doesn't carry.
// Tenants named on the command line without a configuration entry are
// added with a prompted password.
func gatherPasswords(names []string) {
	if App.Provision.RootPassword == "" {
		App.Provision.RootPassword = string(prompt.RootPassword())
	}
	configured := make(map[string]int, len(App.Provision.Tenants))
	for i, spec := range App.Provision.Tenants {
		configured[spec.Name] = i
	}
	for _, name := range names {
		if _, ok := configured[name]; !ok {
			App.Provision.Tenants = append(App.Provision.Tenants,
				provision.TenantSpec{Name: name})
			configured[name] = len(App.Provision.Tenants) - 1
		}
	}
	selected := names
	if len(selected) == 0 {
		selected = make([]string, 0, len(App.Provision.Tenants))
		for _, spec := range App.Provision.Tenants {
			selected = append(selected, spec.Name)
		}
	}
	for _, name := range selected {
		i := configured[name]
		if App.Provision.Tenants[i].Password == "" {
			App.Provision.Tenants[i].Password = string(prompt.TenantPassword(name))
		}
	}
}
