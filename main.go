package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	shopperx "github.com/pattadon/shoppilot/agent/agents/shopper"
	catalogx "github.com/pattadon/shoppilot/agent/catalog"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
	statex "github.com/pattadon/shoppilot/agent/state"
	azopenaix "github.com/pattadon/shoppilot/pkg/azopenai"
	configx "github.com/pattadon/shoppilot/pkg/config"
	embeddingx "github.com/pattadon/shoppilot/pkg/embedding"
	_ "github.com/pattadon/shoppilot/pkg/logger/autoload"
)

type AppConfig struct {
	SessionID string `envconfig:"SESSION_ID"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	azureCfg := configx.MustNew[azopenaix.Config]("AZURE_OPENAI")
	azureClient := azopenaix.NewClient(*azureCfg)
	if azureClient == nil {
		panic("failed to initialize azure openai client")
	}
	reasoner, err := gatewayx.NewAzureReasoner(azureClient, azureCfg.Deployment, azureCfg.Timeout)
	if err != nil {
		panic(err)
	}

	embeddingCfg := configx.MustNew[embeddingx.Config]("EMBEDDING")
	embedder := embeddingx.MustNew(*embeddingCfg)

	searchCfg := configx.MustNew[gatewayx.VectorSearchConfig]("VECTOR_SEARCH")
	searcher, err := gatewayx.NewVectorSearchClient(*searchCfg)
	if err != nil {
		panic(err)
	}

	catalog := openCatalog()
	store, session := loadSession(ctx, appCfg.SessionID)

	agent, err := shopperx.New(reasoner, embedder, searcher, catalog, session)
	if err != nil {
		panic(err)
	}

	runREPL(ctx, agent, store)
}

// openCatalog is best-effort: without a DSN the agent still runs, FAQ
// questions just get an unavailability reply.
func openCatalog() contractx.Catalog {
	catalogCfg, err := configx.New[catalogx.Config]("CATALOG")
	if err != nil {
		log.Warn().Err(err).Msg("catalog not configured, FAQ queries disabled")
		return nil
	}
	store, err := catalogx.NewStore(*catalogCfg)
	if err != nil {
		log.Warn().Err(err).Msg("catalog unavailable, FAQ queries disabled")
		return nil
	}
	return store
}

// loadSession restores the session from Upstash when configured, otherwise
// starts an in-memory one.
func loadSession(ctx context.Context, sessionID string) (statex.Store, *statex.Session) {
	storeCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	if err != nil {
		log.Debug().Msg("session store not configured, using in-memory session")
		return nil, statex.NewSession(sessionID)
	}
	store, err := statex.NewUpstashRedisStore(*storeCfg)
	if err != nil {
		log.Warn().Err(err).Msg("session store unavailable, using in-memory session")
		return nil, statex.NewSession(sessionID)
	}

	if sessionID != "" {
		session, err := store.Load(ctx, sessionID)
		if err == nil {
			return store, session
		}
		if err != statex.ErrSessionNotFound {
			log.Warn().Err(err).Msg("could not load session, starting fresh")
		}
	}
	return store, statex.NewSession(sessionID)
}

func runREPL(ctx context.Context, agent *shopperx.Agent, store statex.Store) {
	fmt.Println("AI Product Search Assistant")
	fmt.Println("Type 'quit' to exit, 'reset' to restart, 'debug' to inspect state, or 'image <path>' to search with an image.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit":
			fmt.Println("Goodbye!")
			return
		case "reset":
			agent.Reset()
			fmt.Println("Conversation reset.")
			continue
		case "debug":
			session := agent.Session()
			fmt.Printf("Context: %v\n", session.Memory.ActiveContext)
			fmt.Println(session.Cart.Summary())
			continue
		}

		text := input
		imagePath := ""
		if strings.HasPrefix(strings.ToLower(input), "image ") {
			imagePath = strings.Trim(strings.TrimSpace(input[6:]), `"'`)
			if _, err := os.Stat(imagePath); err != nil {
				fmt.Printf("Image not found at: %s\n", imagePath)
				continue
			}
			text = "search with this image"
		}

		reply, err := agent.ProcessTurn(ctx, text, imagePath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("\nAgent: %s\n", reply)

		if store != nil {
			if err := store.Save(ctx, agent.Session()); err != nil {
				log.Warn().Err(err).Msg("could not persist session")
			}
		}
	}
}
