// Plankit - Plan-Based LLM Agent Execution in Go
//
// Plankit turns a natural-language request into a validated,
// dependency-ordered plan of tool invocations and executes it wave by
// wave, with native tool calling used automatically when the model
// supports it.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/plankit/plankit
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/plankit/plankit/model"
//		"github.com/plankit/plankit/task"
//		"github.com/plankit/plankit/tool"
//	)
//
//	func main() {
//		adapter, _ := model.NewOpenAIAdapter("sk-...")
//
//		registry := tool.NewRegistry(myGeocodeTool, myWeatherTool)
//
//		engine := task.NewEngine(adapter)
//		answer, _ := engine.Execute(context.Background(), task.ExecutionContext{
//			Message:  "What's the weather in Bogota?",
//			Registry: registry,
//		})
//		fmt.Println(answer)
//	}
//
// # Packages
//
//   - task: planner, wave executor, reference resolver, execution engine
//   - tool: tool definitions, registry and built-in web tools
//   - model: model adapters (OpenAI, langchaingo)
//   - schema: JSON schema helpers and validation
//   - memory: conversation memory strategies
//   - rag: retrieval-augmented prompt assembly
//   - store: run record persistence (memory, sqlite, postgres, redis)
//   - log: logging interface and implementations
package plankit
