// Package commands defines the mercascan CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/mercascan/mercascan/cmd/mercascan/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "mercascan",
	Short: "Analisador de viabilidade de produtos para o Mercado Livre",
	Long: `mercascan extrai os produtos de um catálogo em PDF, pesquisa cada um
no Mercado Livre, calcula taxas e margens, pontua preço, concorrência e
demanda, sugere kits promocionais e exporta tudo em planilhas Excel.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Init(noColor, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "caminho do arquivo de configuração")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "saída detalhada")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "desativa cores na saída")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
