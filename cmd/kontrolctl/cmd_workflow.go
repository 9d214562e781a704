// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sistemakontrol/kontrol/internal/workflow"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Inspect the defect status graph",
}

var workflowDotCmd = &cobra.Command{
	Use:   "dot",
	Short: "Print the graph in Graphviz DOT format",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprint(cmd.OutOrStdout(), workflow.ToDot())
	},
}

var workflowTableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print each status with its outgoing edges",
	Run: func(cmd *cobra.Command, _ []string) {
		statuses := workflow.Statuses()
		rows := make([][]string, 0, len(statuses))
		for _, s := range statuses {
			next := workflow.RawNext(s)
			names := make([]string, len(next))
			for i, n := range next {
				names[i] = string(n)
			}
			rows = append(rows, []string{string(s), strings.Join(names, ", "), fmt.Sprint(workflow.IsTerminal(s))})
		}
		printTable(cmd, []string{"status", "next", "terminal"}, rows)
	},
}

func init() {
	workflowCmd.AddCommand(workflowDotCmd, workflowTableCmd)
}
