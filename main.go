package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	contractx "github.com/apparelbot/concierge/agent/contract"
	"github.com/apparelbot/concierge/agent/orchestrator"
	"github.com/apparelbot/concierge/agent/prompt"
	statex "github.com/apparelbot/concierge/agent/state"
	"github.com/apparelbot/concierge/agent/supervisor"
	"github.com/apparelbot/concierge/agent/tool"
	"github.com/apparelbot/concierge/agent/worker"
	"github.com/apparelbot/concierge/commerce"
	configx "github.com/apparelbot/concierge/pkg/config"
	llmx "github.com/apparelbot/concierge/pkg/llm"
	_ "github.com/apparelbot/concierge/pkg/logger/autoload"
	retrievalx "github.com/apparelbot/concierge/pkg/retrieval"
	tavilyx "github.com/apparelbot/concierge/pkg/tavily"
)

type AppConfig struct {
	// SessionBackend selects the conversation store: "redis" or "memory".
	SessionBackend string `envconfig:"SESSION_BACKEND" default:"memory"`
	CreateSchema   bool   `envconfig:"CREATE_SCHEMA" default:"false"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")

	dbCfg := configx.MustNew[commerce.DBConfig]("DB")
	db, err := commerce.OpenPostgres(*dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if appCfg.CreateSchema {
		if err := commerce.CreateSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("create schema")
		}
	}

	var store statex.Store
	if strings.EqualFold(appCfg.SessionBackend, "redis") {
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		redisStore, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init session store")
		}
		store = redisStore
	} else {
		store = statex.NewMemoryStore()
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	workerModel, err := llmCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("init worker model")
	}
	routerModel, err := llmCfg.NewRouter(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("init router model")
	}

	retriever := retrievalx.MustNew(*configx.MustNew[retrievalx.Config]("RETRIEVAL"))
	searcher := tavilyx.MustNew(*configx.MustNew[tavilyx.Config]("TAVILY"))

	catalog := commerce.NewCatalog(db)
	orders := commerce.NewOrderService(db)

	registry := tool.NewRegistry()
	registry.Register(tool.NewCatalogTools(catalog)...)
	registry.Register(tool.NewSalesTools(orders)...)
	registry.Register(tool.NewWebSearchTool(searcher))
	executor := tool.NewExecutor(registry)

	prompts := prompt.LoadPromptSet()

	router, err := supervisor.New(routerModel, prompts.Supervisor)
	if err != nil {
		log.Fatal().Err(err).Msg("init supervisor")
	}

	inventoryWorker, err := worker.NewToolWorker(
		string(contractx.DestInventoryQuery),
		workerModel,
		prompts.Inventory,
		registry.Infos(tool.ToolListProducts, tool.ToolQueryProducts),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("init inventory worker")
	}

	salesWorker, err := worker.NewToolWorker(
		string(contractx.DestSales),
		workerModel,
		prompts.Sales,
		registry.Infos(
			tool.ToolQueryProducts,
			tool.ToolCreateDraftOrder,
			tool.ToolConfirmOrder,
			tool.ToolRestockNotify,
		),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("init sales worker")
	}

	webSearchWorker, err := worker.NewToolWorker(
		string(contractx.DestWebSearch),
		workerModel,
		prompts.WebSearch,
		registry.Infos(tool.ToolWebSearch),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("init web search worker")
	}

	workers := map[contractx.Destination]contractx.Worker{
		contractx.DestPolicy:         worker.NewPolicyWorker(workerModel, retriever, prompts.Policy),
		contractx.DestInventoryQuery: inventoryWorker,
		contractx.DestSales:          salesWorker,
		contractx.DestWebSearch:      webSearchWorker,
	}

	// Each tool-using worker gets an executor scoped to its own binding set,
	// so a worker reaching for another worker's tool sees a not-found
	// observation instead of executing it.
	executors := map[contractx.Destination]contractx.ToolExecutor{
		contractx.DestInventoryQuery: executor.Scoped(tool.ToolListProducts, tool.ToolQueryProducts),
		contractx.DestSales: executor.Scoped(
			tool.ToolQueryProducts,
			tool.ToolCreateDraftOrder,
			tool.ToolConfirmOrder,
			tool.ToolRestockNotify,
		),
		contractx.DestWebSearch: executor.Scoped(tool.ToolWebSearch),
	}

	orchestratorCfg := configx.MustNew[orchestrator.Config]("ORCHESTRATOR")
	service, err := orchestrator.New(ctx, store, router, workers, executors, *orchestratorCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	log.Info().Msg("concierge ready")
	runChatLoop(ctx, service)
}

// runChatLoop reads customer messages from stdin, one turn per line, until
// EOF or interrupt. The session id persists across turns.
func runChatLoop(ctx context.Context, service *orchestrator.Service) {
	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""

	fmt.Println("Type a message, or /reset to start over. Ctrl-D to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/reset" {
			if sessionID != "" {
				if err := service.Reset(ctx, sessionID); err != nil {
					log.Warn().Err(err).Str("session_id", sessionID).Msg("reset session")
				}
			}
			sessionID = ""
			fmt.Println("Session cleared.")
			continue
		}

		reply, sid := service.SubmitTurn(ctx, sessionID, line, orchestrator.ModeChat)
		sessionID = sid
		fmt.Println(reply)
	}
}
