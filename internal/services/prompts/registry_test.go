package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Defaults(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	for _, task := range []string{
		TaskStandaloneQuestion,
		TaskSelectNextAction,
		TaskAnswerSystem,
		TaskAnswerGroundedSystem,
		TaskAnswerInitialAI,
		TaskCodingSystem,
		TaskFileSummary,
	} {
		tpl, err := registry.Prompt(task)
		require.NoError(t, err, task)
		assert.NotEmpty(t, tpl, task)
	}

	_, err = registry.Prompt("no_such_task")
	assert.Error(t, err)
}

func TestNewRegistry_InstructionSubstitution(t *testing.T) {
	dir := t.TempDir()

	instructions := `instructions:
  - type: greeting
    content: Hello from instructions
`
	promptsFile := `prompts:
  - task: test_task
    content: "{{greeting}} and a {placeholder}"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "instructions.yml"), []byte(instructions), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts.yml"), []byte(promptsFile), 0644))

	registry, err := NewRegistry(dir)
	require.NoError(t, err)

	tpl, err := registry.Prompt("test_task")
	require.NoError(t, err)
	assert.Equal(t, "Hello from instructions and a {placeholder}", tpl)
}

func TestRender(t *testing.T) {
	out := Render("Q: {question}\nH: {chat_history_str}", map[string]string{
		"question":         "what is up",
		"chat_history_str": "- human: hi",
	})
	assert.Equal(t, "Q: what is up\nH: - human: hi", out)
}

func TestRender_MissingVarLeftIntact(t *testing.T) {
	out := Render("{question} {unknown}", map[string]string{"question": "x"})
	assert.Equal(t, "x {unknown}", out)
}
