// Package prebuilt provides ready-to-use agents built on the graph package.
//
// # ReAct Agent
//
// The ReAct agent combines reasoning and acting: the model decides which
// tool to call, sees the result and either calls another tool or answers.
// Every tool is offered to the model as a function with one string argument
// named "input".
//
//	agent, err := prebuilt.CreateReactAgent(model, []tools.Tool{
//		&tool.Calculator{},
//		&tool.CurrentTime{},
//	}, prebuilt.WithMaxIterations(10))
//
//	state, err := agent.Invoke(ctx, prebuilt.NewAgentState("What is 17 * 38?"))
//	fmt.Println(prebuilt.FinalAnswer(state))
//
// The graph has two nodes. "agent" calls the model and "tools" executes the
// requested calls and routes back to "agent". The run ends when the model
// answers without tool calls or when the iteration cap is reached.
//
// # Conversation Agent
//
// ConversationAgent wraps the ReAct agent with a memory.Memory so that each
// Chat call sees the earlier turns:
//
//	chat, _ := prebuilt.NewConversationAgent(model, tools, memory.NewWindowMemory(10))
//	answer, _ := chat.Chat(ctx, "Tell me a joke about cats")
package prebuilt
