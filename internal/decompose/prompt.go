package decompose

// decompositionSystem is the system instruction for decomposition calls.
const decompositionSystem = `You are an expert software project planner. You break coding tasks into well-scoped subtasks and always answer with valid JSON.`

// decompositionPrompt is the prompt template for breaking a task into subtasks.
const decompositionPrompt = `Break the following coding task into 3-7 subtasks.

Task to decompose:
%s

Return ONLY a JSON object with this exact structure (no other text):
{
  "subtasks": [
    {
      "title": "Short subtask title",
      "description": "Detailed description of what this subtask involves",
      "priority": "low|medium|high|critical",
      "complexity": "simple|moderate|complex|very_complex",
      "estimated_time": "e.g. 2 hours",
      "dependencies": ["title of sibling subtask this depends on"]
    }
  ]
}

Guidelines:
- Produce between 3 and 7 subtasks
- Each subtask should be a concrete, self-contained unit of work
- dependencies may only reference titles of other subtasks in this same list
- Use an empty array [] for dependencies when there are none
- Order subtasks so that dependencies come before dependents where possible
- estimated_time should be a rough figure like "30 minutes", "2 hours", or "1 day"`

// refinementSystem is the system instruction for classification calls.
const refinementSystem = `You are an expert software project planner. You judge whether a subtask is atomic or needs further breakdown and always answer with valid JSON.`

// refinementPrompt is the prompt template for the per-subtask
// classification query: does this subtask need further decomposition?
const refinementPrompt = `Decide whether the following subtask needs to be broken down further.

Subtask:
Title: %s
Description: %s
Complexity: %s

Return ONLY a JSON object with this exact structure (no other text):
{
  "needs_decomposition": true,
  "subtasks": [
    {
      "title": "Short subtask title",
      "description": "Detailed description",
      "priority": "low|medium|high|critical",
      "complexity": "simple|moderate|complex|very_complex",
      "estimated_time": "e.g. 1 hour",
      "dependencies": []
    }
  ]
}

Guidelines:
- Set needs_decomposition to false and subtasks to [] when the subtask is
  small enough to implement directly
- When needs_decomposition is true, you may supply the breakdown in
  subtasks, or leave it empty to request a full decomposition pass`
