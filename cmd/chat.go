package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tripbot/config"
	dbt "tripbot/db/db"
	"tripbot/db/mem"
	"tripbot/engine"
	"tripbot/flow"
	gw "tripbot/gateway/gateway"
	"tripbot/gateway/goch"
	"tripbot/session"
)

// chatCommand runs the whole stack in-process: in-memory store, in-memory
// sessions and a channel gateway, with stdin as the chat surface. Handy for
// poking at conversations without Postgres.
func chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "talk to the bot on stdin",
		Run: func(cmd *cobra.Command, args []string) {
			store := mem.NewInMemoryStore()
			seedReferenceData(store)

			deps, err := buildProviders(config.CacheDir())
			if err != nil {
				log.Fatalf("Failed to initialize providers: %v", err)
			}

			eng := engine.New(store, session.NewMemoryStore(), nil)
			if err := flow.RegisterAll(eng, deps); err != nil {
				log.Fatalf("Failed to register flows: %v", err)
			}

			g := goch.NewGateway(16)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				if err := eng.Run(ctx, g); err != nil && err != context.Canceled {
					log.Printf("dispatch loop stopped: %v", err)
				}
			}()

			_, outbound, err := g.Outbound().Subscribe()
			if err != nil {
				log.Fatalf("Failed to subscribe to outbound queue: %v", err)
			}
			go func() {
				for out := range outbound {
					for _, r := range out.Replies {
						printReply(r)
					}
					fmt.Print("> ")
				}
			}()

			fmt.Println("Type /start to begin, Ctrl-D to quit")
			fmt.Print("> ")
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					fmt.Print("> ")
					continue
				}
				in := gw.Inbound{UserID: 1, Username: "local", Text: text}
				if err := g.Inbound().Publish(in); err != nil {
					log.Printf("publish failed: %v", err)
				}
			}
		},
	}
}

func printReply(r gw.Reply) {
	fmt.Println(r.Text)
	if len(r.QuickReplies) > 0 {
		fmt.Printf("  [%s]\n", strings.Join(r.QuickReplies, " | "))
	}
	if len(r.Image) > 0 {
		fmt.Printf("  [image, %d bytes]\n", len(r.Image))
	}
}

// seedReferenceData loads a handful of cities so sign-up and trip planning
// work without the real geo tables.
func seedReferenceData(store *mem.Store) {
	store.AddCountry(dbt.Country{ID: 1, Name: "France", ISO2: "FR", Capital: "Paris", Currency: "EUR"})
	store.AddCountry(dbt.Country{ID: 2, Name: "United Kingdom", ISO2: "GB", Capital: "London", Currency: "GBP"})

	store.AddCity(dbt.City{ID: 1, Name: "Paris", StateName: "Ile-de-France", CountryName: "France", CountryID: 1, Latitude: 48.8566, Longitude: 2.3522})
	store.AddCity(dbt.City{ID: 2, Name: "Lyon", StateName: "Auvergne-Rhone-Alpes", CountryName: "France", CountryID: 1, Latitude: 45.7640, Longitude: 4.8357})
	store.AddCity(dbt.City{ID: 3, Name: "Nice", StateName: "Provence-Alpes-Cote d'Azur", CountryName: "France", CountryID: 1, Latitude: 43.7102, Longitude: 7.2620})
	store.AddCity(dbt.City{ID: 4, Name: "London", StateName: "England", CountryName: "United Kingdom", CountryID: 2, Latitude: 51.5072, Longitude: -0.1276})
	store.AddCity(dbt.City{ID: 5, Name: "Manchester", StateName: "England", CountryName: "United Kingdom", CountryID: 2, Latitude: 53.4808, Longitude: -2.2426})
}
