package cmd

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "tripbot",
	Short: "conversational travel planner",
	Long:  `this is a chat assistant for planning shared trips: register, create travels, invite friends and look up weather, hotels and routes`,
}

func init() {
	RootCmd.AddCommand(serverCommand())
	RootCmd.AddCommand(chatCommand())
	RootCmd.AddCommand(migrateCommand())
}
