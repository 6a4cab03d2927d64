// Package scaffold writes the static and templated project files a new
// Gemini workspace starts with. Every file is created only if absent.
package scaffold

import "strings"

// Scaffolded file and directory names, relative to the workspace root.
const (
	GitignoreFile = ".gitignore"
	SecretsFile   = ".env"
	NotesFile     = "GEMINI.md"
	ReadmeFile    = "README.md"
	LicenseFile   = "LICENSE"
	MemoryDir     = "memory"
	OpinionsDir   = "opinions"
	CommandsDir   = ".gemini/commands"
)

// GitignoreTemplate is written verbatim to .gitignore.
const GitignoreTemplate = `# Byte-compiled / optimized files
__pycache__/
*.py[cod]
*$py.class

# Virtual environments
.venv/
venv/
env/
ENV/

# Secrets
.env
.env.*
!.env.example

# Distribution / packaging
build/
dist/
*.egg-info/
.eggs/

# Test and type-check caches
.pytest_cache/
.mypy_cache/
.ruff_cache/
.coverage
htmlcov/

# Editors
.vscode/
.idea/
*.swp
*~

# OS files
.DS_Store
Thumbs.db
`

// NotesTemplate is written verbatim to GEMINI.md, the context file the
// Gemini CLI loads at the start of every session in this directory.
const NotesTemplate = `# Project notes

This file is loaded by the Gemini CLI as project context. Keep it short
and factual; put anything longer in memory/.

## Layout

- memory/    facts worth keeping between sessions, one topic per file
- opinions/  running assessments of the project
  - strengths.md       what works and should be kept
  - concerns.md        risks, smells, things to revisit
  - open_questions.md  decisions not made yet
- requirements.yaml  generated package manifest; do not edit by hand

## Conventions

- Read memory/ before answering questions about past decisions.
- Record new decisions in memory/ with the date.
- Use /remember and /opine to update memory/ and opinions/.
`

// readmeTemplate is rendered by RenderReadme.
const readmeTemplate = `# {{project}}

Workspace for working on {{project}} with the Gemini CLI.

## Setup

Activate the Python environment:

    source {{env}}/bin/activate        # macOS / Linux
    {{env}}\Scripts\activate           # Windows

Put your API key in .env:

    GEMINI_API_KEY=...

## Usage

    gemini -m {{model}} --output-format {{format}}

Installed packages are listed in requirements.yaml, regenerated by
` + "`gemkit init`" + ` on every run.

## Layout

- GEMINI.md   project context loaded by the Gemini CLI
- memory/     notes kept between sessions
- opinions/   running assessments
`

// ReadmeData holds the values interpolated into README.md.
type ReadmeData struct {
	Project      string
	Environment  string
	Model        string
	OutputFormat string
}

// RenderReadme fills the README template.
func RenderReadme(d ReadmeData) string {
	r := strings.NewReplacer(
		"{{project}}", d.Project,
		"{{env}}", d.Environment,
		"{{model}}", d.Model,
		"{{format}}", d.OutputFormat,
	)
	return r.Replace(readmeTemplate)
}

// OpinionFiles are seeded, empty, when opinions/ is first created.
var OpinionFiles = []string{"strengths.md", "concerns.md", "open_questions.md"}

// CommandTemplate is one Gemini CLI custom slash command file.
type CommandTemplate struct {
	Name    string // file name under .gemini/commands
	Content string
}

// CommandTemplates returns the slash commands written to .gemini/commands.
func CommandTemplates() []CommandTemplate {
	return []CommandTemplate{
		{Name: "remember.toml", Content: rememberCommand},
		{Name: "opine.toml", Content: opineCommand},
	}
}

const rememberCommand = `description = "Record a fact in memory/"
prompt = """
Add the following to the most relevant file in memory/, creating a new
file named after the topic if none fits. Prefix the entry with today's date.

{{args}}
"""
`

const opineCommand = `description = "Update the assessments in opinions/"
prompt = """
Review the project with this focus: {{args}}

Update opinions/strengths.md, opinions/concerns.md and
opinions/open_questions.md. Keep existing entries unless they are no
longer true; say why when you remove one.
"""
`
