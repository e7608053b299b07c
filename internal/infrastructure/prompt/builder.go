// Package prompt renders chat messages for every generation task from an
// embedded YAML prompt configuration.
package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"testbrain/internal/domain/entity"
)

//go:embed prompts.yaml
var defaultConfig []byte

//go:embed api_test_case_template.json
var defaultAPITemplate []byte

type generatorConfig struct {
	Role           string   `yaml:"role"`
	Capabilities   string   `yaml:"capabilities"`
	TestMethods    []string `yaml:"test_methods"`
	TestTypes      []string `yaml:"test_types"`
	SystemTemplate string   `yaml:"system_template"`
	HumanTemplate  string   `yaml:"human_template"`
}

type reviewerConfig struct {
	Role              string   `yaml:"role"`
	EvaluationAspects []string `yaml:"evaluation_aspects"`
	ReviewPoints      []string `yaml:"review_points"`
	SystemTemplate    string   `yaml:"system_template"`
	HumanTemplate     string   `yaml:"human_template"`
}

type analyserConfig struct {
	Role           string   `yaml:"role"`
	Capabilities   string   `yaml:"capabilities"`
	AnalysisFocus  []string `yaml:"analysis_focus"`
	SystemTemplate string   `yaml:"system_template"`
	HumanTemplate  string   `yaml:"human_template"`
}

type apiGeneratorConfig struct {
	Role                  string   `yaml:"role"`
	Capabilities          string   `yaml:"capabilities"`
	APIAnalysisFocus      []string `yaml:"api_analysis_focus"`
	TemplateUnderstanding []string `yaml:"template_understanding"`
	SystemTemplate        string   `yaml:"system_template"`
	HumanTemplate         string   `yaml:"human_template"`
}

type Config struct {
	TestCaseGenerator    generatorConfig    `yaml:"test_case_generator"`
	TestCaseReviewer     reviewerConfig     `yaml:"test_case_reviewer"`
	PRDAnalyser          analyserConfig     `yaml:"prd_analyser"`
	APITestCaseGenerator apiGeneratorConfig `yaml:"api_test_case_generator"`
}

// Builder is safe for concurrent use; it holds only parsed templates.
type Builder struct {
	cfg         Config
	tmpl        *template.Template
	apiTemplate any
}

// New builds from the embedded prompt configuration.
func New() (*Builder, error) {
	return Load(defaultConfig)
}

// Load builds from a YAML prompt configuration.
func Load(data []byte) (*Builder, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode prompt config: %w", err)
	}

	root := template.New("prompts").Option("missingkey=error")
	for name, text := range map[string]string{
		"generator.system": cfg.TestCaseGenerator.SystemTemplate,
		"generator.human":  cfg.TestCaseGenerator.HumanTemplate,
		"reviewer.system":  cfg.TestCaseReviewer.SystemTemplate,
		"reviewer.human":   cfg.TestCaseReviewer.HumanTemplate,
		"prd.system":       cfg.PRDAnalyser.SystemTemplate,
		"prd.human":        cfg.PRDAnalyser.HumanTemplate,
		"api.system":       cfg.APITestCaseGenerator.SystemTemplate,
		"api.human":        cfg.APITestCaseGenerator.HumanTemplate,
	} {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("prompt config: template %s is empty", name)
		}
		if _, err := root.New(name).Parse(text); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
	}

	var apiTemplate any
	if err := json.Unmarshal(defaultAPITemplate, &apiTemplate); err != nil {
		return nil, fmt.Errorf("decode api test case template: %w", err)
	}

	return &Builder{cfg: cfg, tmpl: root, apiTemplate: apiTemplate}, nil
}

// APITemplate returns the structural template every generated API case follows.
func (b *Builder) APITemplate() any {
	return b.apiTemplate
}

// APICaseInput is everything the API test case prompt embeds.
type APICaseInput struct {
	Target     entity.APIDefinition
	Priority   string
	Count      int
	Template   any
	References []entity.SearchHit
}

// BuildAPICaseMessages renders the system and user messages asking for
// Count test cases for one API definition. It does no I/O.
func (b *Builder) BuildAPICaseMessages(in APICaseInput) ([]entity.Message, error) {
	cfg := b.cfg.APITestCaseGenerator

	tmpl := in.Template
	if tmpl == nil {
		tmpl = b.apiTemplate
	}
	tmplJSON, err := CompactJSON(tmpl)
	if err != nil {
		return nil, fmt.Errorf("encode test case template: %w", err)
	}

	system, err := b.render("api.system", map[string]any{
		"Role":          cfg.Role,
		"Capabilities":  cfg.Capabilities,
		"Focus":         strings.Join(cfg.APIAnalysisFocus, ", "),
		"TemplateRules": strings.Join(cfg.TemplateUnderstanding, "\n"),
		"CaseCount":     in.Count,
	})
	if err != nil {
		return nil, err
	}

	user, err := b.render("api.human", map[string]any{
		"Name":       in.Target.Name(),
		"Method":     in.Target.Method(),
		"Path":       in.Target.Path(),
		"Request":    RenderRequest(in.Target),
		"Response":   RenderResponse(in.Target),
		"Priority":   in.Priority,
		"CaseCount":  in.Count,
		"References": renderReferences(in.References),
		"Template":   tmplJSON,
	})
	if err != nil {
		return nil, err
	}

	return []entity.Message{entity.SystemMessage{Text: system}, entity.UserMessage{Text: user}}, nil
}

type RequirementInput struct {
	Input         string
	InputType     string
	DesignMethods []string
	Categories    []string
	CaseCount     int
	Knowledge     []entity.SearchHit
}

func (b *Builder) BuildRequirementMessages(in RequirementInput) ([]entity.Message, error) {
	cfg := b.cfg.TestCaseGenerator

	system, err := b.render("generator.system", map[string]any{
		"Role":         cfg.Role,
		"Capabilities": cfg.Capabilities,
		"TestMethods":  strings.Join(cfg.TestMethods, ", "),
		"TestTypes":    strings.Join(cfg.TestTypes, ", "),
	})
	if err != nil {
		return nil, err
	}

	inputType := "requirement description"
	if in.InputType == "code" {
		inputType = "code snippet"
	}
	methods := "all applicable design methods"
	if len(in.DesignMethods) > 0 {
		methods = strings.Join(in.DesignMethods, ", ")
	}
	categories := "all applicable test types"
	if len(in.Categories) > 0 {
		categories = strings.Join(in.Categories, ", ")
	}
	knowledge := "Rely on your professional knowledge."
	if len(in.Knowledge) > 0 {
		knowledge = "Use the following knowledge base content as reference:\n" + renderReferences(in.Knowledge)
	}

	user, err := b.render("generator.human", map[string]any{
		"CaseCount":     in.CaseCount,
		"InputType":     inputType,
		"Input":         in.Input,
		"DesignMethods": methods,
		"Categories":    categories,
		"Knowledge":     knowledge,
	})
	if err != nil {
		return nil, err
	}

	return []entity.Message{entity.SystemMessage{Text: system}, entity.UserMessage{Text: user}}, nil
}

func (b *Builder) BuildReviewMessages(tc *entity.TestCase, knowledge []entity.SearchHit) ([]entity.Message, error) {
	cfg := b.cfg.TestCaseReviewer

	system, err := b.render("reviewer.system", map[string]any{
		"Role":    cfg.Role,
		"Aspects": strings.Join(cfg.EvaluationAspects, ", "),
	})
	if err != nil {
		return nil, err
	}

	points := make([]string, 0, len(cfg.ReviewPoints))
	for _, p := range cfg.ReviewPoints {
		points = append(points, "- "+p)
	}
	related := "No related knowledge found."
	if len(knowledge) > 0 {
		related = renderReferences(knowledge)
	}

	user, err := b.render("reviewer.human", map[string]any{
		"Title":           tc.Title,
		"Description":     tc.Description,
		"TestSteps":       tc.TestSteps,
		"ExpectedResults": tc.ExpectedResults,
		"Requirements":    tc.Requirements,
		"CodeSnippet":     tc.CodeSnippet,
		"Knowledge":       related,
		"ReviewPoints":    strings.Join(points, "\n"),
	})
	if err != nil {
		return nil, err
	}

	return []entity.Message{entity.SystemMessage{Text: system}, entity.UserMessage{Text: user}}, nil
}

func (b *Builder) BuildPRDMessages(markdown string) ([]entity.Message, error) {
	cfg := b.cfg.PRDAnalyser

	system, err := b.render("prd.system", map[string]any{
		"Role":         cfg.Role,
		"Capabilities": cfg.Capabilities,
		"Focus":        strings.Join(cfg.AnalysisFocus, ", "),
	})
	if err != nil {
		return nil, err
	}
	user, err := b.render("prd.human", map[string]any{"Markdown": markdown})
	if err != nil {
		return nil, err
	}

	return []entity.Message{entity.SystemMessage{Text: system}, entity.UserMessage{Text: user}}, nil
}

func (b *Builder) render(name string, data map[string]any) (string, error) {
	var sb strings.Builder
	if err := b.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
