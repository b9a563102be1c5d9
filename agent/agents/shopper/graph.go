package shopper

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	nodex "github.com/pattadon/shoppilot/agent/nodes"
)

// compileTurnGraph wires the per-turn pipeline: the supervisor fans out to
// terminal handlers (safety, cart, small talk, out-of-domain) or into the
// search pipeline, and the context stitcher splits FAQ questions off to the
// structured catalog path.
func (a *Agent) compileTurnGraph(ctx context.Context) (compose.Runnable[*nodex.TurnState, *nodex.TurnState], error) {
	graph := compose.NewGraph[*nodex.TurnState, *nodex.TurnState]()

	if err := graph.AddLambdaNode("supervisor",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Supervisor(ctx, in, a.reasoner, a.prompts.Supervisor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node supervisor: %w", err)
	}

	if err := graph.AddLambdaNode("safety",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Safety(ctx, in, a.reasoner, a.prompts.Safety)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node safety: %w", err)
	}

	if err := graph.AddLambdaNode("cart_manager",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.ManageCart(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node cart_manager: %w", err)
	}

	if err := graph.AddLambdaNode("small_talk",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.SmallTalk(ctx, in, a.reasoner, a.prompts.SmallTalk)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node small_talk: %w", err)
	}

	if err := graph.AddLambdaNode("out_of_domain",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.OutOfDomain(ctx, in, a.reasoner, a.prompts.OutOfDomain)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node out_of_domain: %w", err)
	}

	if err := graph.AddLambdaNode("intent_classifier",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.ClassifyIntent(ctx, in, a.reasoner, a.prompts.Intent)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node intent_classifier: %w", err)
	}

	if err := graph.AddLambdaNode("entity_extractor",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.ExtractEntities(ctx, in, a.reasoner, a.prompts.Entities)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node entity_extractor: %w", err)
	}

	if err := graph.AddLambdaNode("context_stitcher",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.StitchContext(ctx, in, a.reasoner, a.prompts.Stitcher)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node context_stitcher: %w", err)
	}

	if err := graph.AddLambdaNode("structured_query",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.AnswerCatalogQuestion(ctx, in, a.reasoner, a.catalog, a.prompts.Text2SQL, a.prompts.Entities)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node structured_query: %w", err)
	}

	if err := graph.AddLambdaNode("vector_search",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.SearchProducts(ctx, in, a.embedder, a.searcher)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node vector_search: %w", err)
	}

	if err := graph.AddLambdaNode("clarification_filter",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.FilterResults(ctx, in, a.reasoner, a.prompts.Clarify)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node clarification_filter: %w", err)
	}

	if err := graph.AddLambdaNode("response_generator",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.GenerateResponse(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node response_generator: %w", err)
	}

	supervisorBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.TurnState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			switch in.NextAction {
			case nodex.ActionSafety:
				return "safety", nil
			case nodex.ActionCartManager:
				return "cart_manager", nil
			case nodex.ActionSmallTalk:
				return "small_talk", nil
			case nodex.ActionOutOfDomain:
				return "out_of_domain", nil
			default:
				return "intent_classifier", nil
			}
		},
		map[string]bool{
			"safety":            true,
			"cart_manager":      true,
			"small_talk":        true,
			"out_of_domain":     true,
			"intent_classifier": true,
		},
	)
	if err := graph.AddBranch("supervisor", supervisorBranch); err != nil {
		return nil, fmt.Errorf("add supervisor branch: %w", err)
	}

	safetyBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.TurnState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			if in.IsSafe {
				return "intent_classifier", nil
			}
			return compose.END, nil
		},
		map[string]bool{
			"intent_classifier": true,
			compose.END:         true,
		},
	)
	if err := graph.AddBranch("safety", safetyBranch); err != nil {
		return nil, fmt.Errorf("add safety branch: %w", err)
	}

	stitcherBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.TurnState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			if in.Intent == contractx.IntentFAQ {
				return "structured_query", nil
			}
			return "vector_search", nil
		},
		map[string]bool{
			"structured_query": true,
			"vector_search":    true,
		},
	)
	if err := graph.AddBranch("context_stitcher", stitcherBranch); err != nil {
		return nil, fmt.Errorf("add stitcher branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "supervisor"},
		{"cart_manager", compose.END},
		{"small_talk", compose.END},
		{"out_of_domain", compose.END},
		{"intent_classifier", "entity_extractor"},
		{"entity_extractor", "context_stitcher"},
		{"structured_query", compose.END},
		{"vector_search", "clarification_filter"},
		{"clarification_filter", "response_generator"},
		{"response_generator", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("shopper.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile shopper turn graph: %w", err)
	}
	return runner, nil
}
