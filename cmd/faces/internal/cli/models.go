package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facelab/go-faces/modelzoo"
)

var allModels = []string{
	modelzoo.OcvCnnModel,
	modelzoo.OcvCnnConfig,
	modelzoo.YuNetModel,
	modelzoo.PigoFaceFinder,
	modelzoo.PigoPuploc,
}

var modelsCmd = &cobra.Command{
	Use:   "models [name...]",
	Short: "Download model files into the local cache",
	Long:  "Download model files into the local cache. Without arguments, all known models are fetched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		zoo, err := modelzoo.New()
		if err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			names = allModels
		}
		paths, err := zoo.FetchAll(names...)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Println(path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
