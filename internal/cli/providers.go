package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/open-verix/integrity/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered verification providers",
	Run: func(cmd *cobra.Command, args []string) {
		names := providers.ListVerifiers()
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
	},
}
