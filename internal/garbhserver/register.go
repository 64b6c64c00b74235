package garbhserver

import (
	"github.com/anatolykoptev/go_garbh/internal/engine/content"
	"github.com/anatolykoptev/go_garbh/internal/engine/media"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Services are the discovery components the tools call into.
type Services struct {
	Finder    media.LinkFinder
	Resources content.ResourceFinder
}

// NewServices wires the default agent and resource pipeline.
func NewServices() *Services {
	agent := media.NewAgent()
	return &Services{
		Finder:    agent,
		Resources: media.NewPipeline(agent),
	}
}

// RegisterTools registers all GarbhVeda tools on the given MCP server:
// media links, activity resources, generated content and model configuration.
func RegisterTools(server *mcp.Server, s *Services) {
	registerFindMediaLink(server, s)
	registerFindActivityResources(server, s)
	registerInitialRaagas(server, s)
	registerInitialMantras(server, s)

	registerDailyCurriculum(server, s)
	registerInterpretDream(server)
	registerFinancialWisdom(server)
	registerRhythmicMath(server)
	registerRaagaRecommendations(server, s)
	registerVedicNames(server)
	registerDadJokes(server)

	registerGetModelConfig(server)
	registerSetModelConfig(server)
}

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 13
