package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "storymesh",
	Short:         "StoryMesh generates a series of short stories with cooperating model agents",
	Long:          `StoryMesh drives a planner, world builder, outliner, writer, editor and memory keeper through a phased pipeline to turn a single premise into a set of self-contained short stories.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}
