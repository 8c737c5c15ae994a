package intent

import "context"

// Function is a callable the model may choose, described by a JSON schema.
type Function struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type Prompt struct {
	System    string
	User      string
	Functions []Function
}

// Reply is what the model answered: a FunctionCall or FreeText.
type Reply interface {
	reply()
}

type FunctionCall struct {
	Name string
	Args map[string]any
}

type FreeText struct {
	Text string
}

func (FunctionCall) reply() {}
func (FreeText) reply()     {}

// FunctionCaller is the LLM collaborator used for intent resolution.
type FunctionCaller interface {
	CallFunction(ctx context.Context, prompt Prompt) (Reply, error)
}
