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
)

// SegmentsCmd represents the segments command
var SegmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Build and list the mortar segments for an input deck",
	Long: `Projects the master surface onto the secondary surface and lists the
resulting segments with their measure, plus the covered fraction of each
secondary face.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var c *Case
		if c, err = caseFromFlags(cmd); err != nil {
			return
		}
		sm, err := c.Segments()
		if err != nil {
			return
		}
		fmt.Printf("%d segments, %d without a master face\n", len(sm.Segments), sm.NumNonProjecting())
		for _, seg := range sm.Segments {
			fmt.Printf("  segment %4d secondary %4d master %4d measure %12.6g\n",
				seg.ID, seg.Secondary, seg.Master, seg.Measure)
		}
		for f, ids := range sm.BySecondary {
			var projecting float64
			for _, id := range ids {
				if sm.Segments[id].HasMaster() {
					projecting += sm.Segments[id].Measure
				}
			}
			if total := sm.Coverage(f); total > 0 {
				fmt.Printf("  face %4d projecting fraction %8.4f\n", f, projecting/total)
			}
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(SegmentsCmd)
	SegmentsCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the surfaces, law and multiplier")
	SegmentsCmd.Flags().BoolP("quiet", "q", false, "do not echo the input deck")
}
