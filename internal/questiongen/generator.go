package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/providers/textgen"
	"github.com/intervoice/backend/internal/utils"
)

// resumeCharBudget bounds how much resume text is embedded in the prompt so
// long CVs stay inside the model's input limits.
const resumeCharBudget = 2000

var difficultyEmphasis = map[models.Difficulty]string{
	models.DifficultyEasy:   "Focus on basic concepts, fundamental skills, and general experience questions.",
	models.DifficultyMedium: "Include both fundamental and intermediate-level questions with some scenario-based problems.",
	models.DifficultyHard:   "Create challenging questions including complex scenarios, advanced technical concepts, and problem-solving situations.",
}

type Generator struct {
	provider textgen.Provider
}

func New(provider textgen.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate returns exactly n tailored questions or an error. A response that
// parses but has the wrong length is malformed, not truncated or padded.
func (g *Generator) Generate(ctx context.Context, resumeText, jobTitle string, difficulty models.Difficulty, n int) ([]string, error) {
	const op = "Generator.Generate"

	if n <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question count must be > 0", nil)
	}

	prompt := buildPrompt(resumeText, jobTitle, difficulty, n)

	raw, err := g.provider.GenerateText(ctx, prompt)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "text generation failed", err)
	}

	questions, err := parseQuestions(raw, n)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "unexpected generation output", err)
	}
	return questions, nil
}

func buildPrompt(resumeText, jobTitle string, difficulty models.Difficulty, n int) string {
	emphasis, ok := difficultyEmphasis[difficulty]
	if !ok {
		emphasis = difficultyEmphasis[models.DifficultyMedium]
	}

	if len(resumeText) > resumeCharBudget {
		resumeText = resumeText[:resumeCharBudget]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert interviewer tasked with creating interview questions for a %s position.\n\n", jobTitle)
	fmt.Fprintf(&b, "Candidate's Resume/Background:\n%s\n\n", resumeText)
	fmt.Fprintf(&b, "Job Title: %s\nDifficulty Level: %s\n\n", jobTitle, difficulty)
	b.WriteString("Instructions:\n")
	fmt.Fprintf(&b, "- %s\n", emphasis)
	fmt.Fprintf(&b, "- Generate exactly %d interview questions (NOT more, as \"Tell me about yourself\" will be added separately)\n", n)
	b.WriteString("- Questions should be relevant to the job title and the candidate's background\n")
	b.WriteString("- Include a mix of behavioral, technical, and situational questions as appropriate\n")
	b.WriteString("- Avoid generic questions - tailor them to the role and candidate's experience\n")
	b.WriteString("- Keep questions concise and clear for audio playback\n")
	b.WriteString("- DO NOT include \"Tell me about yourself\" as it's already the first question\n\n")
	fmt.Fprintf(&b, "Return your response as a JSON array of exactly %d questions, like this:\n", n)
	b.WriteString(`["Question 1", "Question 2"]` + "\n\n")
	b.WriteString("Do not include any additional text or formatting - just the JSON array.")
	return b.String()
}

// parseQuestions tolerates a code-fence-wrapped array but nothing else.
func parseQuestions(raw string, n int) ([]string, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var questions []string
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrBadGeneration, err)
	}
	if len(questions) != n {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", utils.ErrBadGeneration, n, len(questions))
	}
	return questions, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
