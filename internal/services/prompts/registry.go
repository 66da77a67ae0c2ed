package prompts

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yml
var defaultFiles embed.FS

// Prompt task names known to the pipeline.
const (
	TaskStandaloneQuestion   = "standalone_question"
	TaskSelectNextAction     = "select_next_action"
	TaskAnswerSystem         = "answer_system"
	TaskAnswerGroundedSystem = "answer_grounded_system"
	TaskAnswerInitialAI      = "answer_initial_ai"
	TaskCodingSystem         = "coding_assistant_system"
	TaskFileSummary          = "generate_file_summary"
)

type promptFile struct {
	Prompts []struct {
		Task    string `yaml:"task"`
		Content string `yaml:"content"`
	} `yaml:"prompts"`
}

type instructionFile struct {
	Instructions []struct {
		Type    string `yaml:"type"`
		Content string `yaml:"content"`
	} `yaml:"instructions"`
}

// Registry holds the prompt templates keyed by task, with shared instruction
// blocks already substituted. Templates retain their runtime {placeholders},
// filled per call via Render.
type Registry struct {
	prompts map[string]string
}

// NewRegistry loads prompts.yml and instructions.yml from dir when present,
// falling back to the compiled-in defaults for either file. Instruction
// blocks referenced as {{name}} inside prompt templates are expanded once at
// load time.
func NewRegistry(dir string) (*Registry, error) {
	instructions, err := loadInstructions(dir)
	if err != nil {
		return nil, err
	}

	data, err := readFileOrDefault(dir, "prompts.yml")
	if err != nil {
		return nil, err
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yml: %w", err)
	}

	registry := &Registry{prompts: make(map[string]string, len(pf.Prompts))}
	for _, p := range pf.Prompts {
		registry.prompts[p.Task] = substituteInstructions(p.Content, instructions)
	}
	return registry, nil
}

// Prompt returns the template for a task. An unknown task is a programming
// error, surfaced as such.
func (r *Registry) Prompt(task string) (string, error) {
	tpl, ok := r.prompts[task]
	if !ok {
		return "", fmt.Errorf("unknown prompt task %q", task)
	}
	return tpl, nil
}

// Render fills the {name} placeholders of a template with the given values.
func Render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

func loadInstructions(dir string) (map[string]string, error) {
	data, err := readFileOrDefault(dir, "instructions.yml")
	if err != nil {
		return nil, err
	}

	var inf instructionFile
	if err := yaml.Unmarshal(data, &inf); err != nil {
		return nil, fmt.Errorf("failed to parse instructions.yml: %w", err)
	}

	instructions := make(map[string]string, len(inf.Instructions))
	for _, ins := range inf.Instructions {
		instructions[strings.TrimSpace(ins.Type)] = strings.TrimSpace(ins.Content)
	}
	return instructions, nil
}

func substituteInstructions(text string, instructions map[string]string) string {
	for name, content := range instructions {
		text = strings.ReplaceAll(text, "{{"+name+"}}", content)
	}
	return text
}

func readFileOrDefault(dir, name string) ([]byte, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return defaultFiles.ReadFile("defaults/" + name)
}
