// Package model defines the model-adapter seam the task execution core
// depends on, plus two concrete adapters.
//
// The core needs exactly two capabilities: complete a prompt (used for plan
// creation and response humanization) and execute a prompt with the
// provider's native tool-calling protocol. Everything provider-specific
// stays inside an Adapter implementation.
//
//   - LangChainAdapter wraps any langchaingo llms.Model.
//   - OpenAIAdapter speaks to OpenAI or any compatible endpoint directly.
package model
