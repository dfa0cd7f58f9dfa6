package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/unifeast/unifeast-agent/pkg/agent"
	"github.com/unifeast/unifeast-agent/pkg/config"
	"github.com/unifeast/unifeast-agent/pkg/embedding"
	"github.com/unifeast/unifeast-agent/pkg/foodstore"
	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/llm/openai"
	"github.com/unifeast/unifeast-agent/pkg/logging"
	"github.com/unifeast/unifeast-agent/pkg/mcp"
	"github.com/unifeast/unifeast-agent/pkg/memory"
	"github.com/unifeast/unifeast-agent/pkg/server"
	"github.com/unifeast/unifeast-agent/pkg/tools/foodsearch"
	"github.com/unifeast/unifeast-agent/pkg/tools/knowledgebase"
	"github.com/unifeast/unifeast-agent/pkg/tools/profile"
	"github.com/unifeast/unifeast-agent/pkg/userstore"
	weaviatestore "github.com/unifeast/unifeast-agent/pkg/vectorstore/weaviate"
)

const systemPrompt = `You are UniFeast, a friendly food recommendation assistant for university dining.
Help users find food they can eat and will enjoy.

Guidelines:
- Use the user's saved profile (dietary preference, allergies, price sensitivity) to personalize recommendations.
- Always exclude items containing the user's allergens.
- Use the search and catalog tools to ground every recommendation in real menu items; never invent dishes.
- When the user shares new dietary information, save it to their profile.
- Keep answers short and concrete: name the dish, the restaurant and the price.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	logger := logging.New()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Memory.Redis.Addr,
		Password: cfg.Memory.Redis.Password,
		DB:       cfg.Memory.Redis.DB,
	})
	defer redisClient.Close()

	conversationMemory := memory.NewRedisMemory(redisClient, memory.WithTTL(cfg.Memory.Retention))
	profileStore := userstore.NewRedisStore(redisClient)

	embedder := embedding.NewOpenAIEmbedder(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.EmbeddingModel)

	vectorStore, err := weaviatestore.New(
		&interfaces.VectorStoreConfig{
			Host:   cfg.VectorStore.Weaviate.Host,
			Scheme: cfg.VectorStore.Weaviate.Scheme,
			APIKey: cfg.VectorStore.Weaviate.APIKey,
		},
		weaviatestore.WithClass(cfg.VectorStore.Weaviate.Class),
		weaviatestore.WithEmbedder(embedder),
		weaviatestore.WithLogger(logger),
		weaviatestore.WithProperties("name", "description", "restaurant", "cuisine",
			"category", "price", "dietary_tags", "allergens"),
	)
	if err != nil {
		logger.Error(ctx, "Failed to create vector store", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	tools := []interfaces.Tool{
		foodsearch.New(vectorStore,
			foodsearch.WithDefaultTopK(cfg.Search.DefaultTopK),
			foodsearch.WithLogger(logger)),
	}
	tools = append(tools, profile.Tools(profileStore, cfg.Server.DefaultUserID)...)

	var catalog *foodstore.Store
	if cfg.Database.PostgresURL != "" {
		catalog, err = foodstore.Open(cfg.Database.PostgresURL)
		if err != nil {
			logger.Error(ctx, "Failed to open food catalog", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		defer catalog.Close()
		tools = append(tools, knowledgebase.Tools(catalog)...)
	} else {
		logger.Warn(ctx, "DATABASE_URL not set, catalog tools disabled", nil)
	}

	mcpServers := connectMCPServers(ctx, cfg.MCP.Servers, logger)
	defer func() {
		for _, s := range mcpServers {
			if err := s.Close(); err != nil {
				logger.Warn(ctx, "Failed to close MCP server", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	var chatAgent server.Runner
	if cfg.LLM.OpenAI.APIKey != "" {
		llm := openai.NewClient(cfg.LLM.OpenAI.APIKey,
			openai.WithModel(cfg.LLM.OpenAI.Model),
			openai.WithLogger(logger),
			openai.WithRetry())

		a, err := agent.NewAgent(
			agent.WithLLM(llm),
			agent.WithMemory(conversationMemory),
			agent.WithTools(tools...),
			agent.WithMCPServers(mcpServers...),
			agent.WithSystemPrompt(systemPrompt),
			agent.WithMaxIterations(5),
			agent.WithOrgID(cfg.OrgID),
			agent.WithLogger(logger),
			agent.WithLLMConfig(interfaces.LLMConfig{
				Temperature: cfg.LLM.OpenAI.Temperature,
				TopP:        1.0,
			}),
		)
		if err != nil {
			logger.Error(ctx, "Failed to create agent", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		chatAgent = a
	} else {
		logger.Warn(ctx, "OPENAI_API_KEY not set, chat runs in fallback mode", nil)
	}

	serverOptions := []server.Option{
		server.WithAgent(chatAgent),
		server.WithSearcher(vectorStore),
		server.WithLogger(logger),
		server.WithDefaultUserID(cfg.Server.DefaultUserID),
		server.WithDefaultTopK(cfg.Search.DefaultTopK),
		server.WithHealthCheck("redis", profileStore.Ping),
		server.WithHealthCheck("weaviate", vectorStore.Ready),
	}
	if catalog != nil {
		serverOptions = append(serverOptions, server.WithHealthCheck("postgres", catalog.Ping))
	}

	srv := server.New(serverOptions...)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := srv.Run(ctx, addr); err != nil {
		logger.Error(ctx, "Server exited with error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

// connectMCPServers connects to every configured MCP server. A server that
// fails to connect is logged and skipped so the service still starts.
func connectMCPServers(ctx context.Context, configs []config.MCPServerConfig, logger logging.Logger) []interfaces.MCPServer {
	var servers []interfaces.MCPServer
	for _, c := range configs {
		var s interfaces.MCPServer
		var err error

		switch c.Type {
		case "stdio":
			s, err = mcp.NewStdioServer(ctx, mcp.StdioServerConfig{
				Command: c.Command,
				Args:    c.Args,
				Env:     c.Env,
			})
		case "http":
			s, err = mcp.NewHTTPServer(ctx, mcp.HTTPServerConfig{
				BaseURL: c.URL,
				Token:   c.Token,
			})
		default:
			err = fmt.Errorf("unknown MCP server type %q", c.Type)
		}

		if err != nil {
			logger.Warn(ctx, "Failed to connect MCP server", map[string]interface{}{
				"name":  c.Name,
				"error": err.Error(),
			})
			continue
		}

		logger.Info(ctx, "Connected MCP server", map[string]interface{}{"name": c.Name})
		servers = append(servers, s)
	}
	return servers
}
