// Package main, pricelist uygulamasının giriş noktasıdır.
//
// Komutlar (cobra):
//
//	pricelist serve                      HTTP + WebSocket sunucusu (varsayılan)
//	pricelist user create|list|passwd|delete
//	pricelist history list
//	pricelist version
//
// Global değişken YOK (version hariç); bağımlılıklar init_*.go dosyalarındaki
// fonksiyonlarla oluşturulup birbirine bağlanır.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version, build sırasında -ldflags "-X main.version=..." ile set edilir.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pricelist",
		Short:         "Nissan price list server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Alt komut verilmezse sunucu başlar.
		RunE: runServe,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(userCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
