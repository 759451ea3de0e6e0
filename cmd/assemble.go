/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const exampleFile = `
########################################
Title: "Unit square"
Dimension: 3
Law: EqualValue # GapConductance, TractionTransfer or Penalty
Multiplier: Nodal # Elemental or None
UseDual: false
QuadratureOrder: 3
Master:
  Name: top
  FaceType: Quad4
  Value: 1
  Coordinates: [[0,0,0],[0,1,0],[1,1,0],[1,0,0]]
  Faces: [[0,1,2,3]]
Secondary:
  Name: bottom
  FaceType: Quad4
  Value: 0
  Coordinates: [[0,0,0],[1,0,0],[1,1,0],[0,1,0]]
  Faces: [[0,1,2,3]]
########################################
`

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the interface residual and Jacobian for an input deck",
	Long: `Builds segments for the deck, evaluates the constraint law on every
segment and prints the non-zero residual entries and Jacobian blocks.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var c *Case
		if c, err = caseFromFlags(cmd); err != nil {
			return
		}
		blocks, err := c.Assemble()
		if err != nil {
			return
		}
		c.System.Print(c.Dofs)
		if show, _ := cmd.Flags().GetBool("blocks"); show {
			for _, key := range blocks.Keys() {
				fmt.Println(blocks.Block(key.Row, key.Col))
			}
			for _, key := range blocks.ForeignKeys() {
				fmt.Println(blocks.Foreign(key.Row, key.Variable))
			}
		}
		return
	},
}

func caseFromFlags(cmd *cobra.Command) (c *Case, err error) {
	var file string
	if file, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
		return
	}
	if len(file) == 0 {
		fmt.Printf("Example File:%s\n", exampleFile)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
	}
	if c, err = LoadCase(file, viper.GetInt("threads")); err != nil {
		return
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		c.Params.Print()
	}
	return
}

func init() {
	rootCmd.AddCommand(AssembleCmd)
	AssembleCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the surfaces, law and multiplier")
	AssembleCmd.Flags().BoolP("blocks", "b", false, "print every Jacobian block")
	AssembleCmd.Flags().BoolP("quiet", "q", false, "do not echo the input deck")
}
