package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kfreiman/interviewcoach/internal/mcp"
	"github.com/kfreiman/interviewcoach/internal/prompts"
)

type modesConfig struct {
	CatalogPath string `env:"PROMPT_CATALOG_PATH" env-description:"Optional YAML or TOML file overriding prompt tones"`
}

// modesCmd lists the interviewer tones
var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List prompt modes and their tone",
	RunE: func(cmd *cobra.Command, args []string) error {
		var conf modesConfig
		if err := cleanenv.ReadEnv(&conf); err != nil {
			return err
		}
		catalog, err := prompts.LoadCatalog(afero.NewOsFs(), conf.CatalogPath)
		if err != nil {
			return err
		}
		modes, err := mcp.ListModes(catalog)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, m := range modes {
			fmt.Fprintf(w, "%s\t%s\n", m.Mode, m.Tone)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modesCmd)
}
